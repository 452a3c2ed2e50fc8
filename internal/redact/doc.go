// Package redact removes secrets from change patches before the review brief
// leaves the process.
//
// Detection is regex based: API keys and tokens, private key blocks, JWTs,
// credentials embedded in connection URLs, and Python settings such as
// Django's SECRET_KEY. Files whose path matches a configured glob have their
// whole patch replaced instead of being scanned.
package redact
