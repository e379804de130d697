// Package preflight provides readiness checks for the filesystem paths,
// topic rules, and search provider that playscribe depends on.
//
// These checks run in two contexts:
//   - The daemon runtime calls RunAll before starting the scheduler and
//     refuses to start when a local check fails.
//   - The CLI "playscribe status" command shows every check, including the
//     provider reachability probe.
package preflight
