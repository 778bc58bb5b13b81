package secret

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// refPrefix marks a value or substring as a provider reference.
const refPrefix = "secretref:"

// Resolver turns configuration values into usable credentials: strict
// environment expansion first, then provider reference substitution.
//
// A nil *Resolver is valid and performs environment expansion only.
type Resolver struct {
	providers map[string]Provider

	// strict rejects providers that resolve a reference to "".
	strict bool
}

// NewResolver creates a resolver over the given providers. With strict
// set, an empty resolved value is treated as an error.
func NewResolver(strict bool, providers ...Provider) *Resolver {
	r := &Resolver{
		providers: make(map[string]Provider),
		strict:    strict,
	}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// Register adds a provider, replacing any previous one of the same
// name.
func (r *Resolver) Register(provider Provider) {
	if r == nil || provider == nil {
		return
	}
	if r.providers == nil {
		r.providers = make(map[string]Provider)
	}
	r.providers[provider.Name()] = provider
}

// ResolveValue expands environment variables in value and substitutes
// any secret references, whole-value or inline.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value)
	if err != nil {
		return "", err
	}
	if r == nil {
		return expanded, nil
	}

	if provider, ref, ok := ParseSecretRef(expanded); ok {
		return r.resolveRef(ctx, provider, ref)
	}
	return r.resolveInline(ctx, expanded)
}

// ResolveSlice resolves every element of values.
func (r *Resolver) ResolveSlice(ctx context.Context, values []string) ([]string, error) {
	resolved := make([]string, len(values))
	for i, v := range values {
		out, err := r.ResolveValue(ctx, v)
		if err != nil {
			return nil, err
		}
		resolved[i] = out
	}
	return resolved, nil
}

// ResolveMap resolves every value of input, keyed errors included.
func (r *Resolver) ResolveMap(ctx context.Context, input map[string]string) (map[string]string, error) {
	if input == nil {
		return nil, nil
	}
	out := make(map[string]string, len(input))
	for k, v := range input {
		resolved, err := r.ResolveValue(ctx, v)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", k, err)
		}
		out[k] = resolved
	}
	return out, nil
}

// ParseSecretRef splits a whole-value reference of the form
// "secretref:<provider>:<ref>". ok is false for anything else.
func ParseSecretRef(value string) (provider string, ref string, ok bool) {
	if !strings.HasPrefix(value, refPrefix) {
		return "", "", false
	}
	rest := strings.TrimPrefix(value, refPrefix)
	provider, ref, found := strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}

func (r *Resolver) resolveRef(ctx context.Context, providerName, ref string) (string, error) {
	if strings.TrimSpace(providerName) == "" {
		return "", errors.New("secret: provider name is required")
	}
	if strings.TrimSpace(ref) == "" {
		return "", errors.New("secret: ref is required")
	}
	provider, ok := r.providers[providerName]
	if !ok || provider == nil {
		return "", fmt.Errorf("secret: provider %q is not registered", providerName)
	}
	value, err := provider.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if r.strict && value == "" {
		return "", fmt.Errorf("secret: provider %q returned empty value", providerName)
	}
	return value, nil
}

var inlineRefPattern = regexp.MustCompile(`secretref:([^:\s]+):([^\s]+)`)

// resolveInline substitutes references embedded in a larger string,
// e.g. "Bearer secretref:vault:supplier/api-key". Replacement runs
// back to front so earlier match offsets stay valid.
func (r *Resolver) resolveInline(ctx context.Context, value string) (string, error) {
	matches := inlineRefPattern.FindAllStringSubmatchIndex(value, -1)
	if len(matches) == 0 {
		return value, nil
	}

	out := value
	for i := len(matches) - 1; i >= 0; i-- {
		m := matches[i]
		resolved, err := r.resolveRef(ctx, out[m[2]:m[3]], out[m[4]:m[5]])
		if err != nil {
			return "", err
		}
		out = out[:m[0]] + resolved + out[m[1]:]
	}
	return out, nil
}
