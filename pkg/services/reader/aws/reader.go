// Package aws reads live AWS resources into domain records, one reader per
// service.
package aws

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/smithy-go"
	"github.com/de-tools/aws-atlas/pkg/models/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 5

// Reader lists the resources of one AWS service.
type Reader interface {
	// Service is the short service name used by --services, e.g. "ec2"
	Service() string
	// Kinds are the resource kinds the reader produces
	Kinds() []domain.Kind
	Read(ctx context.Context) ([]domain.Resource, error)
}

// ReadError is a service that could not be read. The run goes on without it.
type ReadError struct {
	Service string
	Err     error
}

func (e ReadError) Error() string {
	return fmt.Sprintf("failed to read %s: %v", e.Service, e.Err)
}

func (e ReadError) Unwrap() error {
	return e.Err
}

// AccessDenied reports whether the service failed on missing permissions.
func (e ReadError) AccessDenied() bool {
	return IsAccessDenied(e.Err)
}

var accessDeniedCodes = map[string]bool{
	"AccessDenied":          true,
	"AccessDeniedException": true,
	"UnauthorizedOperation": true,
	"UnauthorizedAccess":    true,
	"AuthorizationError":    true,
	"AuthFailure":           true,
}

func IsAccessDenied(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return accessDeniedCodes[apiErr.ErrorCode()]
	}
	return false
}

type Controller struct {
	readers     map[string]Reader
	concurrency int
}

func NewController(concurrency int, readers ...Reader) (*Controller, error) {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	ctrl := &Controller{
		readers:     make(map[string]Reader),
		concurrency: concurrency,
	}

	for _, r := range readers {
		service := r.Service()
		if _, exists := ctrl.readers[service]; exists {
			return nil, fmt.Errorf("duplicate reader for service: %s", service)
		}
		ctrl.readers[service] = r
	}

	if len(ctrl.readers) == 0 {
		return nil, fmt.Errorf("at least one reader must be provided")
	}

	return ctrl, nil
}

// Services returns the registered service names, sorted.
func (c *Controller) Services() []string {
	services := make([]string, 0, len(c.readers))
	for s := range c.readers {
		services = append(services, s)
	}
	sort.Strings(services)
	return services
}

// ReadAll runs the selected readers, all of them when services is empty.
// Failing services are returned as ReadErrors. Within a kind resources are
// ordered by id so the result does not depend on which reader finished first.
func (c *Controller) ReadAll(ctx context.Context, services []string) (map[domain.Kind][]domain.Resource, []ReadError, error) {
	selected, err := c.selectReaders(services)
	if err != nil {
		return nil, nil, err
	}
	logger := zerolog.Ctx(ctx)

	var (
		mu       sync.Mutex
		results  = make(map[domain.Kind][]domain.Resource)
		failures []ReadError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, r := range selected {
		g.Go(func() error {
			logger.Debug().Str("service", r.Service()).Msg("reading service")
			resources, err := r.Read(gctx)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn().Err(err).Str("service", r.Service()).Bool("access_denied", IsAccessDenied(err)).
					Msg("service read failed, continuing without it")
				mu.Lock()
				failures = append(failures, ReadError{Service: r.Service(), Err: err})
				mu.Unlock()
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, res := range resources {
				results[res.Kind] = append(results[res.Kind], res)
			}
			logger.Debug().Str("service", r.Service()).Int("count", len(resources)).Msg("service read")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for _, rs := range results {
		sort.SliceStable(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
	}
	sort.Slice(failures, func(i, j int) bool { return failures[i].Service < failures[j].Service })
	return results, failures, nil
}

func (c *Controller) selectReaders(services []string) ([]Reader, error) {
	if len(services) == 0 {
		services = c.Services()
	}
	seen := make(map[string]bool)
	var out []Reader
	for _, s := range services {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		r, ok := c.readers[s]
		if !ok {
			return nil, fmt.Errorf("unsupported service: %s (supported: %s)", s, strings.Join(c.Services(), ", "))
		}
		seen[s] = true
		out = append(out, r)
	}
	return out, nil
}
