// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package quicklist

import "github.com/coredb/coredb/coreerr"

// SetBookmark names the node holding pos, creating or overwriting the
// bookmark called name. At most maxBookmarks bookmarks may exist at once.
func (l *List) SetBookmark(name string, pos Pos) error {
	for i := range l.bookmarks {
		if l.bookmarks[i].name == name {
			l.bookmarks[i].n = pos.n
			return nil
		}
	}
	if len(l.bookmarks) >= maxBookmarks {
		return coreerr.New("quicklist.SetBookmark", coreerr.CapacityExceeded)
	}
	l.bookmarks = append(l.bookmarks, bookmark{name: name, n: pos.n})
	return nil
}

// FindBookmark returns a Pos at the first element of the node the named
// bookmark currently points to. Bookmarks track their node across splits
// and merges, not the exact element, since merges and deletes can relocate
// or remove individual elements.
func (l *List) FindBookmark(name string) (Pos, bool) {
	for _, b := range l.bookmarks {
		if b.name == name {
			seg := b.n.open()
			p, ok := seg.First()
			if !ok {
				return Pos{}, false
			}
			return Pos{n: b.n, p: p}, true
		}
	}
	return Pos{}, false
}

// DeleteBookmark removes the named bookmark, returning whether it existed.
func (l *List) DeleteBookmark(name string) bool {
	for i := range l.bookmarks {
		if l.bookmarks[i].name == name {
			l.bookmarks = append(l.bookmarks[:i], l.bookmarks[i+1:]...)
			return true
		}
	}
	return false
}

// advanceBookmarks is called when n is about to be unlinked from the
// chain: any bookmark pointing at n is moved to its successor (or
// predecessor, if n was the tail), or dropped if n was the only node.
func (l *List) advanceBookmarks(n *node) {
	for i := range l.bookmarks {
		if l.bookmarks[i].n != n {
			continue
		}
		switch {
		case n.next != nil:
			l.bookmarks[i].n = n.next
		case n.prev != nil:
			l.bookmarks[i].n = n.prev
		default:
			l.bookmarks[i].n = nil
		}
	}
	l.pruneBookmarks()
}

func (l *List) pruneBookmarks() {
	out := l.bookmarks[:0]
	for _, b := range l.bookmarks {
		if b.n != nil {
			out = append(out, b)
		}
	}
	l.bookmarks = out
}
