package location

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manzanit0/storefront/pkg/geocode"
	"github.com/manzanit0/storefront/pkg/terminal"
)

// StaticPermissions always answers with the same status.
type StaticPermissions PermissionStatus

func (s StaticPermissions) RequestPermission(context.Context) (PermissionStatus, error) {
	return PermissionStatus(s), nil
}

// PromptPermissions asks on a terminal. Only "y" and "yes" grant access.
type PromptPermissions struct {
	in  *terminal.Lines
	out io.Writer
}

// NewPromptPermissions reads the answer from in, which the caller keeps
// reading afterwards.
func NewPromptPermissions(in *terminal.Lines, out io.Writer) *PromptPermissions {
	return &PromptPermissions{in: in, out: out}
}

func (p *PromptPermissions) RequestPermission(ctx context.Context) (PermissionStatus, error) {
	if _, err := fmt.Fprint(p.out, "Allow the storefront to access your location? [y/N] "); err != nil {
		return "", err
	}

	answer, err := p.in.ReadLine(ctx)
	switch {
	case err == nil, errors.Is(err, io.EOF):
	case ctx.Err() != nil:
		return "", err
	default:
		return "", fmt.Errorf("read permission answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return PermissionGranted, nil
	default:
		return PermissionDenied, nil
	}
}

// StaticPositioner reports a fixed coordinate, for hosts without any
// positioning hardware.
type StaticPositioner geocode.Coordinate

func (s StaticPositioner) CurrentPosition(context.Context) (geocode.Coordinate, error) {
	return geocode.Coordinate(s), nil
}
