// Package buildsys prepares vendored CMake subprojects for compilation. It resolves the subproject's
// source directory, makes sure the build directory exists and runs the configure and build steps
// through mvdan.cc/sh so the commands behave the same on every platform.
package buildsys
