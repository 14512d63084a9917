package query

import (
	"fmt"
	"strings"
	"time"
)

// Key identifies a query: a tag naming the resource plus its arguments.
// Keys with equal String() share one cache entry.
type Key struct {
	Tag  string
	Args []string
}

// NewKey builds a key from a tag and arguments formatted with fmt.Sprint.
func NewKey(tag string, args ...any) Key {
	k := Key{Tag: tag}
	for _, a := range args {
		k.Args = append(k.Args, fmt.Sprint(a))
	}
	return k
}

func (k Key) String() string {
	if len(k.Args) == 0 {
		return k.Tag
	}
	return k.Tag + ":" + strings.Join(k.Args, ":")
}

// HasPrefix reports whether k is p or one of p's refinements.
func (k Key) HasPrefix(p Key) bool {
	if k.Tag != p.Tag || len(p.Args) > len(k.Args) {
		return false
	}
	for i, a := range p.Args {
		if k.Args[i] != a {
			return false
		}
	}
	return true
}

// Query tags of the site's content queries.
const (
	TagHero           = "hero"
	TagFeatures       = "features"
	TagTestimonials   = "testimonials"
	TagProcessSteps   = "process_steps"
	TagSpecifications = "specifications"
	TagNavigation     = "navigation"
	TagFooter         = "footer"
	TagSiteSettings   = "site_settings"
	TagSearch         = "search"
)

// DefaultStaleTimes is how long a successful result of each tag is served
// without a network call. Tags not listed are always refetched.
var DefaultStaleTimes = map[string]time.Duration{
	TagHero:           time.Hour,
	TagSiteSettings:   time.Hour,
	TagNavigation:     time.Hour,
	TagFooter:         time.Hour,
	TagFeatures:       30 * time.Minute,
	TagTestimonials:   30 * time.Minute,
	TagProcessSteps:   30 * time.Minute,
	TagSpecifications: 30 * time.Minute,
	TagSearch:         10 * time.Minute,
}
