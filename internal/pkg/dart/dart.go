package dart

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const baseURL = "https://opendart.fss.or.kr/api"

type DartClient struct {
	key    string
	client *http.Client
}

type Company struct {
	CorpCode    string `xml:"corp_code"`
	CorpName    string `xml:"corp_name"`
	CorpEngName string `xml:"corp_eng_name"`
	StockCode   string `xml:"stock_code"`
	ModifyDate  string `xml:"modify_date"`
}

type CorpCodeXML struct {
	XMLName   xml.Name  `xml:"result"`
	Companies []Company `xml:"list"`
}

var (
	ErrEmptyArchive = errors.New("corp code archive is empty")
	ErrNoData       = errors.New("no data for the requested report")
)

// UseDefaultClient swaps the pinned TLS client for http.DefaultClient so
// tests can intercept requests.
func (c *DartClient) UseDefaultClient() {
	c.client = http.DefaultClient
}

// 고유번호
// https://opendart.fss.or.kr/guide/detail.do?apiGrpCd=DS001&apiId=2019018
func (c *DartClient) getCorpCodeXML() ([]byte, error) {
	u, _ := url.Parse(baseURL + "/corpCode.xml")
	q := u.Query()
	q.Set("crtfc_key", c.key)
	u.RawQuery = q.Encode()

	resp, err := c.client.Get(u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DART error %d: %s", resp.StatusCode, string(buf))
	}

	// errors come back as a bare xml document instead of a zip
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/xml") {
		return nil, parseStatusXML(buf)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf), int64(len(buf)))
	if err != nil {
		return nil, err
	}

	if len(zr.File) == 0 {
		return nil, ErrEmptyArchive
	}

	outBuf := new(bytes.Buffer)
	for _, f := range zr.File {
		if err := copyZipFile(outBuf, f); err != nil {
			return nil, err
		}
	}

	return outBuf.Bytes(), nil
}

func copyZipFile(w io.Writer, f *zip.File) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(w, rc)
	return err
}

func parseStatusXML(buf []byte) error {
	var out struct {
		Status  string `xml:"status"`
		Message string `xml:"message"`
	}
	if err := xml.Unmarshal(buf, &out); err != nil {
		return fmt.Errorf("DART error: %s", string(buf))
	}
	return fmt.Errorf("DART error %s: %s", out.Status, out.Message)
}

// GetCompanies downloads the corp code list and decodes it in memory.
func (c *DartClient) GetCompanies() ([]Company, error) {
	log.Println("Getting companies")

	buf, err := c.getCorpCodeXML()
	if err != nil {
		return nil, err
	}

	return ParseCorpCodes(buf)
}

// DownloadCorpCodeFile fetches the corp code archive and writes the
// extracted CORPCODE.xml to path. Nothing but the xml is left on disk.
func (c *DartClient) DownloadCorpCodeFile(path string) error {
	buf, err := c.getCorpCodeXML()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return os.WriteFile(path, buf, 0644)
}

// LoadCorpCodeFile parses a CORPCODE.xml written by DownloadCorpCodeFile.
func LoadCorpCodeFile(path string) ([]Company, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return ParseCorpCodes(buf)
}

func ParseCorpCodes(buf []byte) ([]Company, error) {
	dec := xml.NewDecoder(bytes.NewReader(buf))
	var file CorpCodeXML

	if err := dec.Decode(&file); err != nil {
		return nil, err
	}

	for i := range file.Companies {
		c := &file.Companies[i]
		c.CorpCode = strings.TrimSpace(c.CorpCode)
		c.CorpName = strings.TrimSpace(c.CorpName)
		c.CorpEngName = strings.TrimSpace(c.CorpEngName)
		c.StockCode = strings.TrimSpace(c.StockCode)
		c.ModifyDate = strings.TrimSpace(c.ModifyDate)
	}

	return file.Companies, nil
}
