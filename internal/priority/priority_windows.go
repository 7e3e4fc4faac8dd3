//go:build windows

package priority

import "errors"

var errUnsupported = errors.New("priority adjustment not supported on windows")

func setNice(_, _ int) error { return errUnsupported }

func isPermissionDenied(err error) bool { return errors.Is(err, errUnsupported) }
