// Package credentials provides per-provider-family credential stores.
// Each family owns its artifact format and on-disk layout; the rest of
// the system only ever sees existence and deletion.
//
// Layout under the credentials directory:
//   - msal/<account-id>.json: one cache file per Microsoft directory account
//   - google/<account-id>/token.json: one directory per Google account
//
// Removing an account-scoped path fully removes the secret.
package credentials
