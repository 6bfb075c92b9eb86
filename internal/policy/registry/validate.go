package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aussiebroadwan/idpolicy/internal/policy/domain"
)

var validate = validator.New()

// structErrors flattens validator output into "Field: tag" pairs.
func structErrors(v any) string {
	err := validate.Struct(v)
	if err == nil {
		return ""
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Namespace()))
		case "url":
			msgs = append(msgs, fmt.Sprintf("%s must be an absolute URL (got %q)", fe.Namespace(), fe.Value()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", fe.Namespace(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// exclusiveGrants lists grant types that cannot be combined on one client.
var exclusiveGrants = [][2]domain.GrantType{
	{domain.GrantImplicit, domain.GrantAuthorizationCode},
	{domain.GrantImplicit, domain.GrantHybrid},
	{domain.GrantAuthorizationCode, domain.GrantHybrid},
}

func validateClient(c domain.Client) []error {
	var errs []error
	fail := func(format string, args ...any) {
		msg := fmt.Sprintf(format, args...)
		errs = append(errs, fmt.Errorf("%w: client %q: %s", ErrInvalidClientConfiguration, c.ID, msg))
	}

	if msg := structErrors(c); msg != "" {
		fail("%s", msg)
	}

	for _, g := range c.AllowedGrantTypes {
		if !g.Known() {
			fail("unsupported grant type %q", g)
		}
	}
	for _, pair := range exclusiveGrants {
		if c.AllowsGrant(pair[0]) && c.AllowsGrant(pair[1]) {
			fail("grant types %q and %q cannot be combined", pair[0], pair[1])
		}
	}

	if len(c.Secrets) == 0 {
		for _, g := range c.AllowedGrantTypes {
			if c.NeedsSecret(g) {
				fail("grant type %q requires a client secret but none is configured", g)
				break
			}
		}
	}

	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
