package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// StoreConfig configures the Store's memoization.
type StoreConfig struct {
	// DocumentCacheSize bounds the per-service document cache. The catalog
	// holds under 400 services, so eviction is never hit in practice.
	DocumentCacheSize int
}

// DefaultStoreConfig returns the production defaults.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{DocumentCacheSize: 512}
}

// Store is the read-through caching layer over the remote catalog. It wraps
// a Fetcher with memoization and exposes every derived query over the raw
// documents.
//
// The index is fetched once per process; each service document is fetched at
// most once per distinct name. Fetch failures are never memoized, so a later
// call retries. All methods are safe for concurrent use: the read-check-
// fetch-write sequence of each cache runs under a mutex, so concurrent first
// accesses to the same key cannot issue duplicate fetches.
type Store struct {
	fetcher Fetcher
	logger  *zap.Logger

	mu    sync.Mutex
	index []ServiceRef
	urls  map[string]string
	docs  *lru.Cache

	catalogMu   sync.Mutex
	catalogKeys map[string][]string
}

// NewStore creates a Store over the given fetcher. A nil logger is replaced
// with a no-op logger.
func NewStore(fetcher Fetcher, config StoreConfig, logger *zap.Logger) (*Store, error) {
	if config.DocumentCacheSize <= 0 {
		config.DocumentCacheSize = DefaultStoreConfig().DocumentCacheSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	docs, err := lru.New(config.DocumentCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating document cache: %w", err)
	}

	return &Store{
		fetcher: fetcher,
		logger:  logger,
		docs:    docs,
	}, nil
}

// Services returns all index entries, fetching the index on first call.
func (s *Store) Services(ctx context.Context) ([]ServiceRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.servicesLocked(ctx)
}

// servicesLocked fetches and memoizes the index. Caller holds s.mu.
func (s *Store) servicesLocked(ctx context.Context) ([]ServiceRef, error) {
	if s.index != nil {
		return s.index, nil
	}

	refs, err := s.fetcher.FetchIndex(ctx)
	if err != nil {
		return nil, err
	}

	urls := make(map[string]string, len(refs))
	for _, ref := range refs {
		urls[ref.Name] = ref.URL
	}

	s.index = refs
	s.urls = urls
	s.logger.Debug("service index fetched", zap.Int("services", len(refs)))
	return refs, nil
}

// Document returns the full document for a service. Returns
// ErrUnknownService when the name is not in the index and ErrUpstream when
// the catalog cannot be reached.
func (s *Store) Document(ctx context.Context, service string) (*ServiceDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.docs.Get(service); ok {
		return cached.(*ServiceDocument), nil
	}

	if _, err := s.servicesLocked(ctx); err != nil {
		return nil, err
	}

	url, ok := s.urls[service]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, service)
	}

	doc, err := s.fetcher.FetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	s.docs.Add(service, doc)
	s.logger.Debug("service document fetched",
		zap.String("service", service),
		zap.Int("actions", len(doc.Actions)),
		zap.Int("resources", len(doc.Resources)))
	return doc, nil
}

// documentIfKnown returns the document, or (nil, nil) when the service is
// not in the index. List queries use it to degrade to an empty result.
func (s *Store) documentIfKnown(ctx context.Context, service string) (*ServiceDocument, error) {
	doc, err := s.Document(ctx, service)
	if errors.Is(err, ErrUnknownService) {
		return nil, nil
	}
	return doc, err
}

// Actions returns the ordered action names for a service. Empty for an
// unknown service.
func (s *Store) Actions(ctx context.Context, service string) ([]string, error) {
	doc, err := s.documentIfKnown(ctx, service)
	if doc == nil || err != nil {
		return nil, err
	}

	names := make([]string, 0, len(doc.Actions))
	for _, action := range doc.Actions {
		names = append(names, action.Name)
	}
	return names, nil
}

// ActionResources returns the resource names an action touches, or ["*"]
// when the action has no explicit resource list. Empty for an unknown
// service or action.
func (s *Store) ActionResources(ctx context.Context, service, action string) ([]string, error) {
	doc, err := s.documentIfKnown(ctx, service)
	if doc == nil || err != nil {
		return nil, err
	}

	act := doc.findAction(action)
	if act == nil {
		return nil, nil
	}
	if len(act.Resources) == 0 {
		return []string{"*"}, nil
	}

	names := make([]string, 0, len(act.Resources))
	for _, ref := range act.Resources {
		names = append(names, ref.Name)
	}
	return names, nil
}

// ActionConditionKeys returns the condition keys scoped to one action.
// Empty for an unknown service or action.
func (s *Store) ActionConditionKeys(ctx context.Context, service, action string) ([]string, error) {
	doc, err := s.documentIfKnown(ctx, service)
	if doc == nil || err != nil {
		return nil, err
	}

	act := doc.findAction(action)
	if act == nil {
		return nil, nil
	}
	return act.ConditionKeys, nil
}

// ActionDetail returns the Actions×Resources join for one action: each
// referenced resource with its ARN formats and condition keys. A resource
// the document references but does not declare degrades to a default record
// instead of failing.
func (s *Store) ActionDetail(ctx context.Context, service, action string) (*ActionDetail, error) {
	doc, err := s.Document(ctx, service)
	if err != nil {
		return nil, err
	}

	act := doc.findAction(action)
	if act == nil {
		return nil, fmt.Errorf("%w: %s:%s", ErrUnknownAction, service, action)
	}
	return joinActionDetail(doc, act), nil
}

// ResourceDetail returns the detail record for one resource.
func (s *Store) ResourceDetail(ctx context.Context, service, resource string) (*ResourceDetail, error) {
	doc, err := s.Document(ctx, service)
	if err != nil {
		return nil, err
	}

	res := doc.findResource(resource)
	if res == nil {
		return nil, fmt.Errorf("%w: %s:%s", ErrUnknownResource, service, resource)
	}

	detail := detailForResource(res)
	return &detail, nil
}

// UniqueResources returns every resource a service declares, with details,
// in name order. Empty for an unknown service.
func (s *Store) UniqueResources(ctx context.Context, service string) ([]ResourceDetail, error) {
	doc, err := s.documentIfKnown(ctx, service)
	if doc == nil || err != nil {
		return nil, err
	}

	details := make([]ResourceDetail, 0, len(doc.Resources))
	for i := range doc.Resources {
		details = append(details, detailForResource(&doc.Resources[i]))
	}
	return details, nil
}

// ContextKeys returns the union of service-level, per-action, and
// per-resource condition keys for a service, deduplicated and sorted. Empty
// for an unknown service.
func (s *Store) ContextKeys(ctx context.Context, service string) ([]string, error) {
	doc, err := s.documentIfKnown(ctx, service)
	if doc == nil || err != nil {
		return nil, err
	}
	return collectContextKeys(doc), nil
}

// PartitionedContextKeys returns ContextKeys split by the aws: prefix rule.
func (s *Store) PartitionedContextKeys(ctx context.Context, service string) (KeyPartition, error) {
	keys, err := s.ContextKeys(ctx, service)
	if err != nil {
		return KeyPartition{}, err
	}
	return PartitionKeys(keys), nil
}

// GlobalContextKeys returns only the aws:-prefixed keys for a service.
func (s *Store) GlobalContextKeys(ctx context.Context, service string) ([]string, error) {
	partition, err := s.PartitionedContextKeys(ctx, service)
	if err != nil {
		return nil, err
	}
	return partition.GlobalKeys, nil
}

// ServiceContextKeys returns only the service-specific keys for a service.
func (s *Store) ServiceContextKeys(ctx context.Context, service string) ([]string, error) {
	partition, err := s.PartitionedContextKeys(ctx, service)
	if err != nil {
		return nil, err
	}
	return partition.ServiceKeys, nil
}

// CatalogContextKeys returns the context keys of every service in the
// catalog that has at least one, keyed by service name. Requires fetching
// every document, so the result is memoized as a single artifact. A service
// whose document fetch fails is skipped, not fatal.
func (s *Store) CatalogContextKeys(ctx context.Context) (map[string][]string, error) {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	if s.catalogKeys != nil {
		return s.catalogKeys, nil
	}

	refs, err := s.Services(ctx)
	if err != nil {
		return nil, err
	}

	byService := make(map[string][]string)
	for _, ref := range refs {
		keys, err := s.ContextKeys(ctx, ref.Name)
		if err != nil {
			s.logger.Debug("skipping service in catalog aggregation",
				zap.String("service", ref.Name),
				zap.Error(err))
			continue
		}
		if len(keys) > 0 {
			byService[ref.Name] = keys
		}
	}

	s.catalogKeys = byService
	return byService, nil
}

// FlattenedCatalogKeys returns the deduplicated sorted union of every
// context key across the whole catalog.
func (s *Store) FlattenedCatalogKeys(ctx context.Context) ([]string, error) {
	byService, err := s.CatalogContextKeys(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, keys := range byService {
		for _, key := range keys {
			seen[key] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

// CatalogGlobalKeys returns every aws:-prefixed key across the catalog,
// deduplicated and sorted.
func (s *Store) CatalogGlobalKeys(ctx context.Context) ([]string, error) {
	flattened, err := s.FlattenedCatalogKeys(ctx)
	if err != nil {
		return nil, err
	}

	var global []string
	for _, key := range flattened {
		if strings.HasPrefix(key, GlobalKeyPrefix) {
			global = append(global, key)
		}
	}
	sort.Strings(global)
	return global, nil
}

// CatalogServiceKeys returns the service-specific (non-aws:) keys of every
// service that has any, keyed by service name.
func (s *Store) CatalogServiceKeys(ctx context.Context) (map[string][]string, error) {
	byService, err := s.CatalogContextKeys(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[string][]string)
	for service, keys := range byService {
		partition := PartitionKeys(keys)
		if len(partition.ServiceKeys) > 0 {
			result[service] = partition.ServiceKeys
		}
	}
	return result, nil
}

// FlattenedCatalogServiceKeys returns the deduplicated sorted union of every
// service-specific key across the catalog.
func (s *Store) FlattenedCatalogServiceKeys(ctx context.Context) ([]string, error) {
	byService, err := s.CatalogServiceKeys(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, keys := range byService {
		for _, key := range keys {
			seen[key] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

// Summary returns the at-a-glance view of one service used by help output:
// counts plus up to five samples of actions, resources, and keys.
func (s *Store) Summary(ctx context.Context, service string) (*ServiceSummary, error) {
	doc, err := s.Document(ctx, service)
	if err != nil {
		return nil, err
	}

	keys := collectContextKeys(doc)
	partition := PartitionKeys(keys)

	summary := &ServiceSummary{
		Service:         service,
		ActionCount:     len(doc.Actions),
		ResourceCount:   len(doc.Resources),
		ContextKeyCount: len(keys),
		GlobalKeyCount:  len(partition.GlobalKeys),
		ServiceKeyCount: len(partition.ServiceKeys),
	}

	for _, action := range doc.Actions {
		if len(summary.SampleActions) == 5 {
			break
		}
		summary.SampleActions = append(summary.SampleActions, action.Name)
	}
	for _, res := range doc.Resources {
		if len(summary.SampleResources) == 5 {
			break
		}
		summary.SampleResources = append(summary.SampleResources, res.Name)
	}
	for _, key := range keys {
		if len(summary.SampleContextKeys) == 5 {
			break
		}
		summary.SampleContextKeys = append(summary.SampleContextKeys, key)
	}

	return summary, nil
}
