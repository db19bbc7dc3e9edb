package version

// Version is overridden at build time with -ldflags "-X github.com/netxfw/rna/internal/version.Version=...".
// Version 在构建时通过 -ldflags 覆盖。
var Version = "dev"

// InspectorAPI is the descriptor layout version the binary was built against.
// InspectorAPI 是二进制构建时所用的描述符布局版本。
const InspectorAPI = 1
