// Package npz reads multi-array NPZ containers: ZIP archives whose members
// are NPY buffers, one named array per member.
//
// The ZIP container itself is delegated to an external reader
// (klauspost/compress/zip); this package only enumerates members in the
// archive's own order and hands each member's bytes to the npy codec. A
// member that is not a valid NPY buffer degrades to a raw entry instead of
// failing the whole archive.
package npz

import (
	"io"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/minghsu/npview/errs"
	"github.com/minghsu/npview/npy"
)

// Member is one named array of an archive.
type Member struct {
	// Name is the member key: the archive file name with its ".npy"
	// suffix stripped, matching how numpy keys savez entries.
	Name string
	// Size is the uncompressed byte size of the member.
	Size int64
	// Header and Preview are set for members that decoded as NPY.
	Header  npy.Header
	Preview npy.DecodeResult
	// Err records why a member could not be decoded; such members are
	// raw entries, not arrays.
	Err error
}

// Archive is the decoded view of one NPZ file: members in archive order.
type Archive struct {
	Members []Member
}

// Keys returns the member names in archive order.
func (a *Archive) Keys() []string {
	keys := make([]string, len(a.Members))
	for i, m := range a.Members {
		keys[i] = m.Name
	}

	return keys
}

// Open reads the archive at path and decodes every member with a preview
// bound of maxElems elements per member.
//
// The archive's own member order is preserved. Per-member decode failures
// are recorded on the member, not returned: a damaged member should not
// take down the preview of its siblings. Only a broken container is an
// error.
func Open(path string, maxElems int) (*Archive, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, errs.WrapIO("open archive", path, err)
	}
	defer rc.Close()

	arc := &Archive{Members: make([]Member, 0, len(rc.File))}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}

		m := Member{
			Name: strings.TrimSuffix(f.Name, ".npy"),
			Size: int64(f.UncompressedSize64),
		}

		data, err := readMember(f)
		if err != nil {
			m.Err = err
			arc.Members = append(arc.Members, m)
			continue
		}

		h, res, err := npy.Decode(data, maxElems)
		if err != nil {
			m.Err = err
		} else {
			m.Header = h
			m.Preview = res
		}
		arc.Members = append(arc.Members, m)
	}

	return arc, nil
}

func readMember(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, errs.WrapIO("open member", f.Name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.WrapIO("read member", f.Name, err)
	}

	return data, nil
}
