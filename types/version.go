package types

// Version is the canonical project version.
// The CLI, the wrapper and the preload hook share this version so that a
// mixed installation is detectable from the logs.
const Version = "0.1.0"
