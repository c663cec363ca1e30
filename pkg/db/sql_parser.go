/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package db

import (
	"strings"
)

// statementScanner splits a migration file into executable statements.
// Semicolons inside quotes, comments and dollar-quoted bodies do not
// terminate a statement. Comments are dropped from the output.
type statementScanner struct {
	src   string
	pos   int
	buf   strings.Builder
	out   []string
	quote byte
	tag   string
}

func splitSQLStatements(content string) []string {
	s := &statementScanner{src: content}
	s.run()

	return s.out
}

func (s *statementScanner) run() {
	for s.pos < len(s.src) {
		switch {
		case s.tag != "":
			s.scanDollarBody()
		case s.quote != 0:
			s.scanQuoted()
		default:
			s.scanPlain()
		}
	}

	s.flush()
}

func (s *statementScanner) scanPlain() {
	rest := s.src[s.pos:]

	switch {
	case strings.HasPrefix(rest, "--"):
		end := strings.IndexByte(rest, '\n')
		if end < 0 {
			s.pos = len(s.src)
			return
		}
		s.pos += end
	case strings.HasPrefix(rest, "/*"):
		end := strings.Index(rest[2:], "*/")
		if end < 0 {
			s.pos = len(s.src)
			return
		}
		s.pos += end + 4
	case rest[0] == '\'' || rest[0] == '"':
		s.quote = rest[0]
		s.buf.WriteByte(rest[0])
		s.pos++
	case rest[0] == '$':
		if tag := dollarTag(rest); tag != "" {
			s.tag = tag
			s.buf.WriteString(tag)
			s.pos += len(tag)
			return
		}
		s.buf.WriteByte('$')
		s.pos++
	case rest[0] == ';':
		s.flush()
		s.pos++
	default:
		s.buf.WriteByte(rest[0])
		s.pos++
	}
}

func (s *statementScanner) scanQuoted() {
	ch := s.src[s.pos]
	s.buf.WriteByte(ch)
	s.pos++

	if ch == s.quote {
		s.quote = 0
	}
}

func (s *statementScanner) scanDollarBody() {
	end := strings.Index(s.src[s.pos:], s.tag)
	if end < 0 {
		s.buf.WriteString(s.src[s.pos:])
		s.pos = len(s.src)
		return
	}

	s.buf.WriteString(s.src[s.pos : s.pos+end+len(s.tag)])
	s.pos += end + len(s.tag)
	s.tag = ""
}

func (s *statementScanner) flush() {
	if stmt := strings.TrimSpace(s.buf.String()); stmt != "" {
		s.out = append(s.out, stmt)
	}

	s.buf.Reset()
}

// dollarTag returns the opening $tag$ at the start of rest, or "".
func dollarTag(rest string) string {
	for i := 1; i < len(rest); i++ {
		ch := rest[i]
		if ch == '$' {
			return rest[:i+1]
		}

		isWord := ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
		if !isWord {
			return ""
		}
	}

	return ""
}

// migrationVersion is the numeric prefix of a migration file name.
func migrationVersion(filename string) string {
	version, _, _ := strings.Cut(filename, "_")

	return version
}
