// Package workspace describes the root folder a reviewer works in: which
// category directories it holds, how far each has progressed, and the lock
// that keeps two review processes from moving the same clips.
package workspace
