// Package engine executes a render plan. It walks the plan in the order the
// planner chose, loads each data file once per group, renders through a
// template.Renderer, and writes an output only when the hash store reports
// the content (or the template producing it) has changed.
//
// Rendering is strictly sequential. The first error stops the run; outputs
// written before it stay on disk and their cache entries stay recorded.
package engine
