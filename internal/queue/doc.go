// Package queue builds the ordered work list for one category and drains it.
//
// A queue is built once per session from the files directly inside the
// category directory whose extension is recognized. Its order is fixed at build
// time, either lexical (sequential) or a seeded uniform permutation (random),
// and it is never rebuilt while the session runs. Popping an empty queue
// reports completion, not an error.
package queue
