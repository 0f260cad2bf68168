// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package history

// chain is the version history of a single key.
//
//	initial <- ... <- first <- ... <- head
//
// initial holds the original value stamped 0 and is never removed.
// first is the oldest record written since the last commit, or initial
// if nothing was written since.
type chain[V any] struct {
	initial, first, head Link
}

func newChain[V any](p *Pool[V], value V) chain[V] {
	l := p.create(value, Link{}, 0)
	return chain[V]{initial: l, first: l, head: l}
}

// addRecord makes l the head. l.prev must already point to the old head.
func (c *chain[V]) addRecord(l Link) {
	if c.first == c.initial {
		c.first = l
	}
	c.head = l
}

func (c *chain[V]) written() bool {
	return c.head != c.initial
}

// rollback drops every record stamped after id.
func (c *chain[V]) rollback(p *Pool[V], id SnapshotID) error {
	if p.get(c.head).at <= id {
		return nil
	}

	// find the oldest record to drop
	oldest := c.head
	for {
		prev := p.get(oldest).prev
		if p.get(prev).at <= id {
			break
		}
		oldest = prev
	}

	dropFirst := c.first != c.initial && p.get(c.first).at > id
	newHead := p.get(oldest).prev
	if err := p.reuse(c.head, oldest); err != nil {
		return err
	}
	c.head = newHead
	if dropFirst {
		c.first = c.initial
	}
	return nil
}

// commit collapses the history to initial <- head.
func (c *chain[V]) commit(p *Pool[V]) error {
	c.first = c.initial
	if c.head == c.initial {
		return nil
	}
	head := p.get(c.head)
	if head.prev == c.initial {
		return nil
	}

	last := head.prev
	oldest := last
	for {
		prev := p.get(oldest).prev
		if prev == c.initial {
			break
		}
		oldest = prev
	}
	if err := p.reuse(last, oldest); err != nil {
		return err
	}
	head.prev = c.initial
	return nil
}

// current returns the value at head.
func (c *chain[V]) current(p *Pool[V]) V {
	return p.get(c.head).value
}

// initialAndCurrent returns the original and current values, or false if the
// key was only ever read.
func (c *chain[V]) initialAndCurrent(p *Pool[V]) (initial, current V, ok bool) {
	if !c.written() {
		return
	}
	return p.get(c.initial).value, p.get(c.head).value, true
}

// sinceCommit returns the value before the first write since the last commit
// and the current value, or false if nothing was written since.
func (c *chain[V]) sinceCommit(p *Pool[V]) (before, current V, ok bool) {
	if c.first == c.initial {
		return
	}
	return p.get(p.get(c.first).prev).value, p.get(c.head).value, true
}
