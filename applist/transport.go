package applist

import (
	"archive/zip"
	"bytes"
	"io"

	yekazip "github.com/yeka/zip"
	"github.com/zero-install/zeroinstall/zerr"
)

const dataMember = "data.xml"

// PackZip wraps the serialized AppList into a ZIP archive containing
// exactly one member, data.xml, AES-128-encrypted when password is
// non-empty (spec.md §4.E ZIP transport).
func PackZip(list *AppList, password string) ([]byte, error) {
	data, err := Marshal(list)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if password == "" {
		w := zip.NewWriter(&buf)
		f, err := w.Create(dataMember)
		if err != nil {
			return nil, &zerr.IO{Op: "zip create", Path: dataMember, Cause: err}
		}
		if _, err := f.Write(data); err != nil {
			return nil, &zerr.IO{Op: "zip write", Path: dataMember, Cause: err}
		}
		if err := w.Close(); err != nil {
			return nil, &zerr.IO{Op: "zip close", Path: dataMember, Cause: err}
		}
		return buf.Bytes(), nil
	}

	w := yekazip.NewWriter(&buf)
	f, err := w.Encrypt(dataMember, password, yekazip.AES128Encryption)
	if err != nil {
		return nil, &zerr.IO{Op: "zip encrypt", Path: dataMember, Cause: err}
	}
	if _, err := f.Write(data); err != nil {
		return nil, &zerr.IO{Op: "zip write", Path: dataMember, Cause: err}
	}
	if err := w.Close(); err != nil {
		return nil, &zerr.IO{Op: "zip close", Path: dataMember, Cause: err}
	}
	return buf.Bytes(), nil
}

// UnpackZip is the inverse of PackZip. A wrong password surfaces as
// zerr.CryptoKeyInvalid; a missing data.xml member as zerr.InvalidData.
func UnpackZip(body []byte, password string) (*AppList, error) {
	if password == "" {
		r, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
		if err != nil {
			return nil, &zerr.InvalidData{Context: "app-list zip", Cause: err}
		}
		for _, f := range r.File {
			if f.Name != dataMember {
				continue
			}
			rc, err := f.Open()
			if err != nil {
				return nil, &zerr.InvalidData{Context: "app-list zip", Cause: err}
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			if err != nil {
				return nil, &zerr.InvalidData{Context: "app-list zip", Cause: err}
			}
			return Unmarshal(data)
		}
		return nil, &zerr.InvalidData{Context: "app-list zip", Cause: errNoDataMember}
	}

	r, err := yekazip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, &zerr.InvalidData{Context: "app-list zip", Cause: err}
	}
	for _, f := range r.File {
		if f.Name != dataMember {
			continue
		}
		f.SetPassword(password)
		rc, err := f.Open()
		if err != nil {
			return nil, &zerr.CryptoKeyInvalid{}
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, &zerr.CryptoKeyInvalid{}
		}
		return Unmarshal(data)
	}
	return nil, &zerr.InvalidData{Context: "app-list zip", Cause: errNoDataMember}
}

type transportError string

func (e transportError) Error() string { return string(e) }

const errNoDataMember = transportError("app-list zip has no data.xml member")
