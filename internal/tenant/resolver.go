package tenant

import (
	"context"
	"strings"

	"github.com/minutemart/storefront-service/internal/domain"
	"github.com/minutemart/storefront-service/pkg/errs"
	"github.com/rs/zerolog/log"
)

// MerchantGetter is the lookup the resolver needs from the data layer.
type MerchantGetter interface {
	GetMerchantByName(ctx context.Context, name string) (domain.Merchant, error)
}

type Resolver struct {
	repo       MerchantGetter
	baseDomain string
}

func CreateResolver(repo MerchantGetter, baseDomain string) *Resolver {
	return &Resolver{
		repo:       repo,
		baseDomain: baseDomain,
	}
}

// ExtractSubdomain pulls the tenant label out of a request host. The apex
// domain and the www label carry no tenant and map to the marketplace
// landing, never to a shopfront.
func ExtractSubdomain(host, baseDomain string) string {
	hostname := host
	if i := strings.Index(hostname, ":"); i >= 0 {
		hostname = hostname[:i]
	}

	if baseDomain != "" {
		if hostname == baseDomain || hostname == "www."+baseDomain {
			return ""
		}
		if sub, ok := strings.CutSuffix(hostname, "."+baseDomain); ok {
			if sub == "www" {
				return ""
			}
			return sub
		}
	}

	parts := strings.Split(hostname, ".")

	// dev hosts like acme.localhost
	if len(parts) >= 2 && parts[len(parts)-1] == "localhost" {
		if parts[0] == "localhost" || parts[0] == "www" {
			return ""
		}
		return parts[0]
	}

	if len(parts) >= 3 {
		if parts[0] == "www" {
			return ""
		}
		return parts[0]
	}

	return ""
}

// ResolveStore maps a request host to the owning merchant. It returns
// (nil, nil) when the host carries no tenant, and ErrStoreNotFound for an
// unknown subdomain. There is deliberately no fallback merchant.
func (r *Resolver) ResolveStore(ctx context.Context, host string) (*domain.Merchant, error) {
	subdomain := ExtractSubdomain(host, r.baseDomain)
	if subdomain == "" {
		return nil, nil
	}

	merchant, err := r.repo.GetMerchantByName(ctx, subdomain)
	if err != nil {
		if err == errs.ErrNotFound {
			log.Info().Str("component", "ResolveStore").Str("subdomain", subdomain).Msg("unknown store subdomain")
			return nil, errs.ErrStoreNotFound
		}
		return nil, err
	}

	return &merchant, nil
}
