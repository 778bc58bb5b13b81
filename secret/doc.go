// Package secret resolves credential references in client
// configuration without pulling secret material into config files.
//
// Two mechanisms compose:
//   - Strict environment expansion: "${SUPPLIER_API_KEY}" fails fast
//     when the variable is unset instead of silently yielding "".
//   - Provider references: "secretref:<provider>:<ref>" hands the ref
//     to a registered Provider (a vault client, a file store, a cloud
//     secret manager) and substitutes the resolved value.
//
// A reference can be the whole value or embedded inline:
//
//	secretref:vault:supplier/api-key
//	Bearer secretref:vault:supplier/api-key
//
// Providers plug in through the Registry; the Resolver drives
// expansion and substitution over configuration values.
package secret
