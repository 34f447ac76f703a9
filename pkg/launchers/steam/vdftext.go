// Kaede
// Copyright (c) 2026 The Kaede Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Kaede.
//
// Kaede is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Kaede is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Kaede.  If not, see <http://www.gnu.org/licenses/>.

package steam

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoAppsBlock is returned when a localconfig.vdf has no "apps" section.
var ErrNoAppsBlock = errors.New("no apps block in Steam config")

// SyntaxError reports malformed VDF text.
type SyntaxError struct {
	Msg    string
	Line   int
	Offset int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("vdf syntax error at line %d: %s", e.Line, e.Msg)
}

type tokenKind int

const (
	tokString tokenKind = iota
	tokOpen
	tokClose
	tokEOF
)

type token struct {
	text  string
	kind  tokenKind
	start int
	end   int
}

// textNode is a key with either a string value or child nodes. Offsets
// index into the source so edits can splice without re-serializing.
type textNode struct {
	key      string
	value    string
	children []*textNode
	keyStart int
	valStart int
	valEnd   int
	open     int
	close    int
	block    bool
}

func (n *textNode) child(key string, fold bool) *textNode {
	for _, c := range n.children {
		if c.key == key || (fold && strings.EqualFold(c.key, key)) {
			return c
		}
	}
	return nil
}

func (n *textNode) findBlock(key string) *textNode {
	for _, c := range n.children {
		if !c.block {
			continue
		}
		if strings.EqualFold(c.key, key) {
			return c
		}
		if found := c.findBlock(key); found != nil {
			return found
		}
	}
	return nil
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) errorf(offset int, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Msg:    fmt.Sprintf(format, args...),
		Line:   strings.Count(l.src[:offset], "\n") + 1,
		Offset: offset,
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.pos++
		case c == '/' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '/':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '[':
			// platform conditional such as [$WIN32]
			end := strings.IndexByte(l.src[l.pos:], ']')
			if end < 0 {
				return
			}
			l.pos += end + 1
		default:
			return
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{kind: tokEOF, start: l.pos, end: l.pos}, nil
	}

	start := l.pos
	switch c := l.src[l.pos]; c {
	case '{':
		l.pos++
		return token{kind: tokOpen, start: start, end: l.pos}, nil
	case '}':
		l.pos++
		return token{kind: tokClose, start: start, end: l.pos}, nil
	case '"':
		var sb strings.Builder
		l.pos++
		for l.pos < len(l.src) {
			c := l.src[l.pos]
			switch {
			case c == '\\' && l.pos+1 < len(l.src):
				sb.WriteByte(unescape(l.src[l.pos+1]))
				l.pos += 2
			case c == '"':
				l.pos++
				return token{kind: tokString, text: sb.String(), start: start, end: l.pos}, nil
			default:
				sb.WriteByte(c)
				l.pos++
			}
		}
		return token{}, l.errorf(start, "unterminated string")
	default:
		for l.pos < len(l.src) {
			c := l.src[l.pos]
			if c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '{' || c == '}' || c == '"' {
				break
			}
			l.pos++
		}
		return token{kind: tokString, text: l.src[start:l.pos], start: start, end: l.pos}, nil
	}
}

func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	default:
		return c
	}
}

// escapeValue quotes the characters Steam escapes in string values.
func escapeValue(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return r.Replace(s)
}

// parseText parses VDF text into a node tree rooted at an unnamed block.
func parseText(src string) (*textNode, error) {
	l := &lexer{src: src}
	root := &textNode{block: true, open: -1, close: len(src)}
	if err := parseChildren(l, root, true); err != nil {
		return nil, err
	}
	return root, nil
}

func parseChildren(l *lexer, parent *textNode, top bool) error {
	for {
		tok, err := l.next()
		if err != nil {
			return err
		}
		switch tok.kind {
		case tokEOF:
			if !top {
				return l.errorf(len(l.src), "unexpected end of file, missing '}'")
			}
			return nil
		case tokClose:
			if top {
				return l.errorf(tok.start, "unexpected '}'")
			}
			parent.close = tok.start
			return nil
		case tokOpen:
			return l.errorf(tok.start, "unexpected '{' without key")
		case tokString:
		}

		n := &textNode{key: tok.text, keyStart: tok.start}
		val, err := l.next()
		if err != nil {
			return err
		}
		switch val.kind {
		case tokString:
			n.value = val.text
			n.valStart = val.start
			n.valEnd = val.end
		case tokOpen:
			n.block = true
			n.open = val.start
			if err := parseChildren(l, n, false); err != nil {
				return err
			}
		default:
			return l.errorf(val.start, "key %q has no value", n.key)
		}
		parent.children = append(parent.children, n)
	}
}

// Validate reports whether src is well-formed VDF text.
func Validate(src []byte) error {
	_, err := parseText(string(src))
	return err
}
