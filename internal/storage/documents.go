/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/JesseTheCatLover/Amish/internal/script"
)

// ScriptExt is the file extension of dialogue scripts.
const ScriptExt = ".jdialogue"

// LoadDocuments reads dialogue scripts in argument order. A file path is read as-is and named
// by its base name. A directory is walked for *.jdialogue files in lexical order; those are
// named by their slash-separated path relative to the directory.
func LoadDocuments(paths ...string) ([]script.Document, error) {
	var docs []script.Document
	for _, p := range paths {
		st, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		if !st.IsDir() {
			b, err := os.ReadFile(p)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", p, err)
			}
			docs = append(docs, script.Document{Name: filepath.Base(p), Text: scriptText(b)})
			continue
		}
		found, err := walkScripts(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, found...)
	}
	return docs, nil
}

func walkScripts(root string) ([]script.Document, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// skip hidden dirs such as .git
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ScriptExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	docs := make([]script.Document, 0, len(files))
	for _, f := range files {
		b, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		rel, err := filepath.Rel(root, f)
		if err != nil {
			rel = filepath.Base(f)
		}
		docs = append(docs, script.Document{Name: filepath.ToSlash(rel), Text: scriptText(b)})
	}
	return docs, nil
}

// ReadDocument reads a single document from r, e.g. standard input.
func ReadDocument(name string, r io.Reader) (script.Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return script.Document{}, fmt.Errorf("read %s: %w", name, err)
	}
	return script.Document{Name: name, Text: scriptText(b)}, nil
}

// scriptText drops a leading UTF-8 byte order mark.
func scriptText(b []byte) string {
	return strings.TrimPrefix(string(b), "\ufeff")
}
