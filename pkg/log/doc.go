// Package log contains the Logger used by the renderer, the frame loop and
// the web server. It wraps zap.SugaredLogger and satisfies core.Logger so the
// rendering packages only depend on a Printf method.
package log
