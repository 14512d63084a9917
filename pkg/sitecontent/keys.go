package sitecontent

import (
	"sort"
	"strings"
	"time"
)

// searchCacheTag is the cache namespace of search results.
const searchCacheTag = "search"

// cacheTTLs are the expiry windows per collection.
var cacheTTLs = map[string]time.Duration{
	string(CollectionHero):              time.Hour,
	string(CollectionSiteSettings):      2 * time.Hour,
	string(CollectionNavigation):        2 * time.Hour,
	string(CollectionFooterSections):    2 * time.Hour,
	string(CollectionFeatures):          30 * time.Minute,
	string(CollectionTestimonials):      30 * time.Minute,
	string(CollectionProcessSteps):      30 * time.Minute,
	string(CollectionSpecifications):    30 * time.Minute,
	string(CollectionNewsletterSignups): 5 * time.Minute,
	string(CollectionContactForms):      5 * time.Minute,
	string(CollectionPageViews):         time.Minute,
	searchCacheTag:                      10 * time.Minute,
}

// DefaultCacheTTL applies to namespaces without an explicit TTL.
const DefaultCacheTTL = time.Hour

// CacheTTL returns the cache expiry for a collection.
func CacheTTL(c Collection) time.Duration {
	if ttl, ok := cacheTTLs[string(c)]; ok {
		return ttl
	}
	return DefaultCacheTTL
}

// CachePrefix returns the key prefix shared by every cached entry of a
// collection.
func CachePrefix(c Collection) string {
	return "content:" + string(c) + ":"
}

// CacheKey builds the cache key for a collection read with the given
// filters. Filters are normalized: empty values are dropped and the rest
// sorted by name, so equal filter sets map to one key.
func CacheKey(c Collection, filters map[string]string) string {
	names := make([]string, 0, len(filters))
	for k, v := range filters {
		if v == "" {
			continue
		}
		names = append(names, k)
	}
	if len(names) == 0 {
		return CachePrefix(c) + "_"
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, k := range names {
		parts[i] = k + "=" + filters[k]
	}
	return CachePrefix(c) + strings.Join(parts, ":")
}

// CollectionOfKey extracts the collection segment of a cache key.
func CollectionOfKey(key string) string {
	rest, ok := strings.CutPrefix(key, "content:")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, ":")
	return name
}

func searchKey(filters map[string]string) string {
	return CacheKey(Collection(searchCacheTag), filters)
}

func searchPrefix() string {
	return CachePrefix(Collection(searchCacheTag))
}
