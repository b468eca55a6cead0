package parser

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrNoMatch is returned when the pattern does not match any FROM directive.
var ErrNoMatch = errors.New("no matching FROM directive")

// ImageFromDockerfile returns the first capture group of pattern in the
// Dockerfile content.
func ImageFromDockerfile(dockerfileContent, pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("compile pattern: %w", err)
	}

	matches := re.FindStringSubmatch(dockerfileContent)
	if len(matches) < 2 || matches[1] == "" {
		return "", fmt.Errorf("%w for %q", ErrNoMatch, pattern)
	}

	return matches[1], nil
}

// ParseImageFromDockerfile is ImageFromDockerfile for embedded Dockerfiles.
// It panics when nothing matches so a broken embed fails at init time.
func ParseImageFromDockerfile(dockerfileContent, pattern, imageName string) string {
	image, err := ImageFromDockerfile(dockerfileContent, pattern)
	if err != nil {
		panic(
			fmt.Sprintf(
				"failed to parse %s image from embedded Dockerfile - "+
					"check that the Dockerfile exists and contains a valid FROM directive",
				imageName,
			),
		)
	}

	return image
}
