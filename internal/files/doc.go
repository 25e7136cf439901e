// Package files manages the per-dataset report directories of the web
// front end. Each uploaded dataset writes its report artifacts under
// <output>/<dataset id>/; the Manager resolves, lists and removes those
// directories and sweeps the ones left behind by a previous process.
package files
