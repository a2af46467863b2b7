package entities

import "github.com/dmitrijs2005/webappsync/internal/client/dedup"

// correlator decides whether a list result answers the latest list request.
type correlator struct {
	latest     string
	superseded *dedup.Set
}

func newCorrelator(history int) *correlator {
	return &correlator{superseded: dedup.New(history)}
}

// issue records token as the latest request. Re-issuing the latest token
// continues the same listing.
func (c *correlator) issue(token string) {
	if c.latest != "" && c.latest != token {
		c.superseded.Add(c.latest)
	}
	c.latest = token
}

type verdict int

const (
	accepted verdict = iota
	superseded
	foreign
)

func (v verdict) String() string {
	switch v {
	case accepted:
		return "accepted"
	case superseded:
		return "superseded"
	default:
		return "foreign"
	}
}

// check classifies the token echoed by a result. Uncorrelated results and
// results arriving before any request was issued are accepted.
func (c *correlator) check(token string) verdict {
	switch {
	case token == "" || c.latest == "" || token == c.latest:
		return accepted
	case c.superseded.Seen(token):
		return superseded
	default:
		return foreign
	}
}
