package sitecontent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// service implements the Service interface
type service struct {
	repository Repository
	cache      Cache
	media      MediaStore
	eventSink  EventSink
	logger     *slog.Logger
	now        func() time.Time
	ttls       map[Collection]time.Duration
	defaultTTL time.Duration

	group singleflight.Group

	mu          sync.Mutex
	generations map[Collection]uint64
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the content store
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithCache enables read-through caching
func WithCache(cache Cache) Option {
	return func(s *service) {
		s.cache = cache
	}
}

// WithMediaStore sets the media blob store
func WithMediaStore(store MediaStore) Option {
	return func(s *service) {
		s.media = store
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// WithCacheTTL overrides the cache expiry of one collection
func WithCacheTTL(c Collection, ttl time.Duration) Option {
	return func(s *service) {
		s.ttls[c] = ttl
	}
}

// WithDefaultCacheTTL sets the expiry of namespaces without a TTL of their own
func WithDefaultCacheTTL(ttl time.Duration) Option {
	return func(s *service) {
		s.defaultTTL = ttl
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		ttls:        make(map[Collection]time.Duration),
		generations: make(map[Collection]uint64),
		defaultTTL:  DefaultCacheTTL,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}

	return s, nil
}

func (s *service) ttl(c Collection) time.Duration {
	if ttl, ok := s.ttls[c]; ok {
		return ttl
	}
	if ttl, ok := cacheTTLs[string(c)]; ok {
		return ttl
	}
	return s.defaultTTL
}

func (s *service) generation(c Collection) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[c]
}

// readThrough serves key from the cache, loading and caching it on a miss.
// Concurrent misses share one load. A load that raced with a write to the
// collection is returned but not cached. The generation is checked again
// after Set, since a write may invalidate between the check and the Set.
func readThrough[T any](ctx context.Context, s *service, c Collection, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "cache get failed", "key", key, "err", err)
		case ok:
			var v T
			if err := json.Unmarshal(raw, &v); err == nil {
				return v, nil
			}
			s.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
		}
	}

	gen := s.generation(c)
	res, err, _ := s.group.Do(key+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		lctx := context.WithoutCancel(ctx)
		v, err := load(lctx)
		if err != nil {
			return nil, err
		}
		if s.cache != nil && s.generation(c) == gen {
			raw, err := json.Marshal(v)
			if err == nil {
				err = s.cache.Set(lctx, key, raw, s.ttl(c))
			}
			if err != nil {
				s.logger.WarnContext(ctx, "cache set failed", "key", key, "err", err)
			} else if s.generation(c) != gen {
				if _, err := s.cache.DeletePrefix(lctx, CachePrefix(c)); err != nil {
					s.logger.WarnContext(ctx, "cache invalidation failed", "collection", c, "err", err)
				}
			}
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}

// invalidate drops every cached read of c, and of search when c is searchable.
func (s *service) invalidate(ctx context.Context, c Collection) {
	targets := []Collection{c}
	for _, sc := range SearchableCollections {
		if sc == c {
			targets = append(targets, Collection(searchCacheTag))
			break
		}
	}

	s.mu.Lock()
	for _, t := range targets {
		s.generations[t]++
	}
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	for _, t := range targets {
		removed, err := s.cache.DeletePrefix(ctx, CachePrefix(t))
		if err != nil {
			s.logger.WarnContext(ctx, "cache invalidation failed", "collection", t, "err", err)
			continue
		}
		if err := s.eventSink.CacheInvalidated(ctx, t, removed); err != nil {
			s.logger.WarnContext(ctx, "event sink failed", "event", "cache_invalidated", "err", err)
		}
	}
}

func (s *service) notify(ctx context.Context, event string, fn func() error) {
	if err := fn(); err != nil {
		s.logger.WarnContext(ctx, "event sink failed", "event", event, "err", err)
	}
}

// insert stamps a new record, stores it and invalidates its collection.
func (s *service) insert(ctx context.Context, op string, r Record) error {
	now := s.now()
	m := r.Meta()
	m.ID = uuid.New()
	m.CreatedAt = now
	m.UpdatedAt = now
	m.IsActive = true

	doc, err := ToDocument(r)
	if err != nil {
		return serverError(op, r.Collection(), err)
	}
	if err := s.repository.Insert(ctx, doc); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return &Error{Kind: KindValidation, Op: op, Collection: r.Collection(), Err: err}
		}
		return serverError(op, r.Collection(), err)
	}
	s.invalidate(ctx, r.Collection())
	s.notify(ctx, "record_created", func() error { return s.eventSink.RecordCreated(ctx, r.Collection(), m.ID) })
	return nil
}

func (s *service) update(ctx context.Context, op string, r Record) error {
	r.Meta().UpdatedAt = s.now()
	doc, err := ToDocument(r)
	if err != nil {
		return serverError(op, r.Collection(), err)
	}
	if err := s.repository.Update(ctx, doc); err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound(op, r.Collection(), err)
		}
		return serverError(op, r.Collection(), err)
	}
	s.invalidate(ctx, r.Collection())
	s.notify(ctx, "record_updated", func() error { return s.eventSink.RecordUpdated(ctx, r.Collection(), r.Meta().ID) })
	return nil
}

func (s *service) find(ctx context.Context, op string, q Query) ([]*Document, error) {
	docs, err := s.repository.Find(ctx, q)
	if err != nil {
		return nil, serverError(op, q.Collection, err)
	}
	return docs, nil
}

// listActive reads the active records of c matching filters, in order.
func listActive[T any, P recordPtr[T]](ctx context.Context, s *service, c Collection, filters map[string]string, limit int) ([]*T, error) {
	keyFilters := filters
	if limit > 0 {
		keyFilters = make(map[string]string, len(filters)+1)
		for k, v := range filters {
			keyFilters[k] = v
		}
		keyFilters["limit"] = strconv.Itoa(limit)
	}
	return readThrough(ctx, s, c, CacheKey(c, keyFilters), func(ctx context.Context) ([]*T, error) {
		docs, err := s.find(ctx, "list", Query{Collection: c, Filters: compact(filters), ActiveOnly: true, Sort: SortByOrder, Limit: limit})
		if err != nil {
			return nil, err
		}
		items, err := decodeAll[T, P](docs)
		if err != nil {
			return nil, serverError("list", c, err)
		}
		return items, nil
	})
}

func compact(filters map[string]string) map[string]string {
	out := make(map[string]string, len(filters))
	for k, v := range filters {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// paginate slices items into the requested page.
func paginate[T any](items []*T, opts ListOptions) *List[T] {
	total := len(items)
	if !opts.Paginated() {
		if items == nil {
			items = []*T{}
		}
		return &List[T]{Items: items, Total: total}
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * opts.PerPage
	if start > total {
		start = total
	}
	end := start + opts.PerPage
	if end > total {
		end = total
	}
	return &List[T]{
		Items:      append([]*T{}, items[start:end]...),
		Total:      total,
		Page:       page,
		PerPage:    opts.PerPage,
		TotalPages: (total + opts.PerPage - 1) / opts.PerPage,
		Paginated:  true,
	}
}

func validateListOptions(op string, c Collection, opts ListOptions) error {
	if opts.Page < 0 || opts.PerPage < 0 || opts.PerPage > 100 {
		return ValidationError(op, c, "page must be >= 1 and per_page between 1 and 100")
	}
	return nil
}

// Singletons

// activeSingleton resolves the current record of a singleton collection:
// lowest order first, then the most recently updated.
func activeSingleton[T any, P recordPtr[T]](ctx context.Context, s *service, c Collection) (*T, error) {
	return readThrough(ctx, s, c, CacheKey(c, nil), func(ctx context.Context) (*T, error) {
		docs, err := s.find(ctx, "get", Query{Collection: c, ActiveOnly: true, Sort: SortByOrder})
		if err != nil {
			return nil, err
		}
		if len(docs) == 0 {
			return nil, notFound("get", c, ErrNoActiveRecord)
		}
		if len(docs) > 1 {
			s.logger.WarnContext(ctx, "multiple active singleton records", "collection", c, "count", len(docs))
		}
		best := docs[0]
		for _, d := range docs[1:] {
			if d.Order == best.Order && d.UpdatedAt.After(best.UpdatedAt) {
				best = d
			}
		}
		v, err := FromDocument[T, P](best)
		if err != nil {
			return nil, serverError("get", c, err)
		}
		return v, nil
	})
}

// replaceSingleton deactivates the active records of r's collection and
// inserts r as the new current one.
func (s *service) replaceSingleton(ctx context.Context, r Record) error {
	c := r.Collection()
	docs, err := s.find(ctx, "create", Query{Collection: c, ActiveOnly: true})
	if err != nil {
		return err
	}
	now := s.now()
	for _, d := range docs {
		d.IsActive = false
		d.UpdatedAt = now
		if err := s.repository.Update(ctx, d); err != nil {
			return serverError("create", c, fmt.Errorf("deactivate %s: %w", d.ID, err))
		}
		s.notify(ctx, "record_deactivated", func() error { return s.eventSink.RecordDeactivated(ctx, c, d.ID) })
	}
	return s.insert(ctx, "create", r)
}

func (s *service) GetHero(ctx context.Context) (*HeroContent, error) {
	return activeSingleton[HeroContent](ctx, s, CollectionHero)
}

func (s *service) CreateHero(ctx context.Context, req CreateHeroRequest) (*HeroContent, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hero := req.record()
	if err := s.replaceSingleton(ctx, hero); err != nil {
		return nil, err
	}
	return hero, nil
}

func (s *service) GetSiteSettings(ctx context.Context) (*SiteSettings, error) {
	return activeSingleton[SiteSettings](ctx, s, CollectionSiteSettings)
}

func (s *service) CreateSiteSettings(ctx context.Context, req CreateSiteSettingsRequest) (*SiteSettings, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	settings := req.record()
	if err := s.replaceSingleton(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Ordered lists

func (s *service) ListFeatures(ctx context.Context, category string, opts ListOptions) (*List[Feature], error) {
	if err := validateListOptions("list", CollectionFeatures, opts); err != nil {
		return nil, err
	}
	items, err := listActive[Feature](ctx, s, CollectionFeatures, map[string]string{"category": category}, 0)
	if err != nil {
		return nil, err
	}
	return paginate(items, opts), nil
}

func (s *service) CreateFeature(ctx context.Context, req CreateFeatureRequest) (*Feature, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f := req.record()
	if err := s.insert(ctx, "create", f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) UpdateFeature(ctx context.Context, id uuid.UUID, req UpdateFeatureRequest) (*Feature, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	doc, err := s.repository.Get(ctx, CollectionFeatures, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound("update", CollectionFeatures, err)
		}
		return nil, serverError("update", CollectionFeatures, err)
	}
	f, err := FromDocument[Feature](doc)
	if err != nil {
		return nil, serverError("update", CollectionFeatures, err)
	}
	req.apply(f)
	if err := s.update(ctx, "update", f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) ListTestimonials(ctx context.Context, limit int, opts ListOptions) (*List[Testimonial], error) {
	if limit == 0 {
		limit = DefaultTestimonials
	}
	if limit < 1 || limit > MaxTestimonials {
		return nil, ValidationError("list", CollectionTestimonials, fmt.Sprintf("limit must be between 1 and %d", MaxTestimonials))
	}
	if err := validateListOptions("list", CollectionTestimonials, opts); err != nil {
		return nil, err
	}
	items, err := listActive[Testimonial](ctx, s, CollectionTestimonials, nil, limit)
	if err != nil {
		return nil, err
	}
	return paginate(items, opts), nil
}

func (s *service) CreateTestimonial(ctx context.Context, req CreateTestimonialRequest) (*Testimonial, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	t := req.record()
	if err := s.insert(ctx, "create", t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *service) ListProcessSteps(ctx context.Context, stepType string, opts ListOptions) (*List[ProcessStep], error) {
	if stepType == "" {
		stepType = DefaultStepType
	}
	if err := validateListOptions("list", CollectionProcessSteps, opts); err != nil {
		return nil, err
	}
	items, err := listActive[ProcessStep](ctx, s, CollectionProcessSteps, map[string]string{"step_type": stepType}, 0)
	if err != nil {
		return nil, err
	}
	return paginate(items, opts), nil
}

func (s *service) CreateProcessStep(ctx context.Context, req CreateProcessStepRequest) (*ProcessStep, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	p := req.record()
	if err := s.insert(ctx, "create", p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) ListSpecifications(ctx context.Context, opts ListOptions) (*List[Specification], error) {
	if err := validateListOptions("list", CollectionSpecifications, opts); err != nil {
		return nil, err
	}
	items, err := listActive[Specification](ctx, s, CollectionSpecifications, nil, 0)
	if err != nil {
		return nil, err
	}
	return paginate(items, opts), nil
}

func (s *service) CreateSpecification(ctx context.Context, req CreateSpecificationRequest) (*Specification, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	sp := req.record()
	if err := s.insert(ctx, "create", sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *service) ListNavigation(ctx context.Context, navType string, opts ListOptions) (*List[NavigationItem], error) {
	if navType == "" {
		navType = DefaultNavType
	}
	if err := validateListOptions("list", CollectionNavigation, opts); err != nil {
		return nil, err
	}
	items, err := listActive[NavigationItem](ctx, s, CollectionNavigation, map[string]string{"nav_type": navType}, 0)
	if err != nil {
		return nil, err
	}
	return paginate(items, opts), nil
}

func (s *service) CreateNavigationItem(ctx context.Context, req CreateNavigationItemRequest) (*NavigationItem, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	n := req.record()
	if err := s.insert(ctx, "create", n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *service) ListFooterSections(ctx context.Context, sectionType string, opts ListOptions) (*List[FooterSection], error) {
	if err := validateListOptions("list", CollectionFooterSections, opts); err != nil {
		return nil, err
	}
	items, err := listActive[FooterSection](ctx, s, CollectionFooterSections, map[string]string{"section_type": sectionType}, 0)
	if err != nil {
		return nil, err
	}
	return paginate(items, opts), nil
}

func (s *service) CreateFooterSection(ctx context.Context, req CreateFooterSectionRequest) (*FooterSection, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	f := req.record()
	if err := s.insert(ctx, "create", f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *service) Deactivate(ctx context.Context, collection Collection, id uuid.UUID) error {
	if !collection.IsContent() {
		return &Error{Kind: KindValidation, Op: "delete", Collection: collection, Err: ErrInvalidCollection}
	}
	doc, err := s.repository.Get(ctx, collection, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return notFound("delete", collection, err)
		}
		return serverError("delete", collection, err)
	}
	if !doc.IsActive {
		return nil
	}
	doc.IsActive = false
	doc.UpdatedAt = s.now()
	if err := s.repository.Update(ctx, doc); err != nil {
		return serverError("delete", collection, err)
	}
	s.invalidate(ctx, collection)
	s.notify(ctx, "record_deactivated", func() error { return s.eventSink.RecordDeactivated(ctx, collection, id) })
	return nil
}

// Submissions

func (s *service) Subscribe(ctx context.Context, req NewsletterSignupRequest) (*NewsletterSignup, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	signup := req.record()
	existing, err := s.find(ctx, "signup", Query{
		Collection: CollectionNewsletterSignups,
		Filters:    map[string]string{"email": signup.Email},
		Limit:      1,
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, &Error{Kind: KindValidation, Op: "signup", Collection: CollectionNewsletterSignups, Err: ErrAlreadySubscribed}
	}
	if err := s.insert(ctx, "signup", signup); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, &Error{Kind: KindValidation, Op: "signup", Collection: CollectionNewsletterSignups, Err: ErrAlreadySubscribed}
		}
		return nil, err
	}
	return signup, nil
}

func (s *service) ListSubscribers(ctx context.Context, status string, opts ListOptions) (*List[NewsletterSignup], error) {
	if status == "" {
		status = SubscriptionSubscribed
	}
	if err := validateListOptions("list", CollectionNewsletterSignups, opts); err != nil {
		return nil, err
	}
	c := CollectionNewsletterSignups
	filters := map[string]string{"status": status}
	items, err := readThrough(ctx, s, c, CacheKey(c, filters), func(ctx context.Context) ([]*NewsletterSignup, error) {
		docs, err := s.find(ctx, "list", Query{Collection: c, Filters: filters, Sort: SortNewest})
		if err != nil {
			return nil, err
		}
		items, err := decodeAll[NewsletterSignup](docs)
		if err != nil {
			return nil, serverError("list", c, err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return paginate(items, opts), nil
}

func (s *service) SubmitContact(ctx context.Context, req ContactRequest) (*ContactForm, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	form := req.record()
	if err := s.insert(ctx, "submit", form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *service) TrackPageView(ctx context.Context, req PageViewRequest) (*PageView, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	view := req.record()
	view.Timestamp = s.now()
	if err := s.insert(ctx, "track", view); err != nil {
		return nil, err
	}
	return view, nil
}

// Media

func (s *service) UploadMedia(ctx context.Context, req UploadMediaRequest) (*MediaAsset, error) {
	if s.media == nil {
		return nil, serverError("upload", "", ErrMediaDisabled)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(req.FileName))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := MediaKey(req.Folder, req.FileName)
	if err := s.media.Upload(ctx, key, req.Reader, contentType); err != nil {
		return nil, serverError("upload", "", err)
	}
	asset, err := s.media.Stat(ctx, key)
	if err != nil {
		return nil, serverError("upload", "", err)
	}
	return asset, nil
}

func (s *service) DownloadMedia(ctx context.Context, key string) (io.ReadCloser, *MediaAsset, error) {
	if s.media == nil {
		return nil, nil, serverError("download", "", ErrMediaDisabled)
	}
	asset, err := s.media.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMediaNotFound) {
			return nil, nil, notFound("download", "", err)
		}
		return nil, nil, serverError("download", "", err)
	}
	rc, err := s.media.Download(ctx, key)
	if err != nil {
		if errors.Is(err, ErrMediaNotFound) {
			return nil, nil, notFound("download", "", err)
		}
		return nil, nil, serverError("download", "", err)
	}
	return rc, asset, nil
}

// MediaKey builds a unique object key for an uploaded file.
func MediaKey(folder, fileName string) string {
	base := SanitizeFileName(fileName)
	name := uuid.New().String() + "-" + base
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

func (s *service) CacheStats(ctx context.Context) (CacheStats, error) {
	if s.cache == nil {
		return CacheStats{Backend: "disabled"}, nil
	}
	stats, err := s.cache.Stats(ctx)
	if err != nil {
		return CacheStats{}, serverError("stats", "", err)
	}
	return stats, nil
}
