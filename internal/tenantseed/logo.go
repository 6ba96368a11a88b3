package tenantseed

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// relocateLogo moves a logo staged at signup time into the permanent
// per-tenant path named by org id. Missing or unmovable files never fail
// provisioning: if the source is gone but the destination already holds the
// file (a retried approval), the existing file is recorded; otherwise the
// tenant simply starts without a logo.
func (s *Seeder) relocateLogo(orgID int64, tempPath *string) (*string, bool) {
	if tempPath == nil || *tempPath == "" {
		return nil, false
	}

	dest := filepath.Join(s.logoStoreDir, fmt.Sprintf("%d%s", orgID, filepath.Ext(*tempPath)))

	if _, err := os.Stat(*tempPath); err != nil {
		if _, destErr := os.Stat(dest); destErr == nil {
			return &dest, true
		}
		slog.Warn("logo file missing, provisioning without logo",
			"orgid", orgID, "source", *tempPath, "error", err)
		return nil, false
	}

	if err := os.MkdirAll(s.logoStoreDir, 0o755); err != nil {
		slog.Warn("logo store directory unavailable, provisioning without logo",
			"orgid", orgID, "error", err)
		return nil, false
	}

	if err := moveFile(*tempPath, dest); err != nil {
		slog.Warn("logo move failed, provisioning without logo",
			"orgid", orgID, "source", *tempPath, "dest", dest, "error", err)
		return nil, false
	}

	return &dest, true
}

// moveFile renames src to dest, falling back to copy-and-remove when the
// two paths live on different filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
