package image

// ParseBuildArgs exposes parseBuildArgs to the external tests.
var ParseBuildArgs = parseBuildArgs
