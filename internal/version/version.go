package version

// Version is stamped by the release pipeline via -ldflags. The default must
// stay a valid semver string so local builds still report something sane.
var Version = "0.1.0"
