/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/JesseTheCatLover/Amish/internal/cli"
	"github.com/JesseTheCatLover/Amish/internal/crash"
	applog "github.com/JesseTheCatLover/Amish/internal/log"
)

func main() {
	// environment defaults until the config is loaded
	applog.Init(applog.FromEnv())
	info := crash.Info{Args: os.Args}
	code := run(&info)
	os.Exit(code)
}

func run(info *crash.Info) int {
	defer crash.Recover(info)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return cli.Execute(ctx, os.Args[1:], info)
}
