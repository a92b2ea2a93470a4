package main

import (
	"log"
	"os"
	"path/filepath"
)

// createDir makes every configured directory; existing ones are left alone.
func createDir(dirList []string) error {
	for _, dir := range dirList {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

// removeOldOutput wipes everything under outDir but keeps the directory.
func removeOldOutput(outDir string) error {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(outDir, entry.Name())); err != nil {
			return err
		}
	}
	log.Printf("removed %d entries from %s", len(entries), outDir)
	return nil
}
