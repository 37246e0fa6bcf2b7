// Package license validates the key file issued with a deployment. A key is
// an xxh3 checksum over the licensee and expiry fields, so tampering with
// either invalidates it. Validation failures are reported to the caller,
// which decides whether to warn or refuse.
package license
