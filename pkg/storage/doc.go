// Package storage writes search results to disk.
//
// The Manager owns one output directory. Files are written atomically through
// a temporary file and rename, as 2-space indented JSON with HTML characters
// left unescaped.
//
// Usage:
//
//	manager, err := storage.NewManager("results")
//	if err != nil {
//	    return err
//	}
//
//	name := storage.ResultFilename("indeed", len(jobs), "engineer", "Austin, TX")
//	path, err := manager.SaveJSON(name, jobs)
package storage
