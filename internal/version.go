package internal

// Version is the smartdeck release, overridden at build time via
// -ldflags "-X codeberg.org/snonux/smartdeck/internal.Version=...".
var Version = "0.3.0"
