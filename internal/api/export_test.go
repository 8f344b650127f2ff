package api

// Test-only aliases for the external api_test package.
const DefaultUserAgent = defaultUserAgent
