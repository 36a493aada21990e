package dart

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type ReportType string

const FIRST_QUARTER = ReportType("11013")   // 1분기
const HALF_YEAR = ReportType("11012")       // 반기
const THIRD_QUARTER = ReportType("11014")   // 3분기
const BUSINESS_REPORT = ReportType("11011") // 사업보고서

const DefaultBusinessYear = "2022"

// Months is the length of the cumulative period a report covers, or 0 for
// an unknown code.
func (r ReportType) Months() int {
	switch r {
	case FIRST_QUARTER:
		return 3
	case HALF_YEAR:
		return 6
	case THIRD_QUARTER:
		return 9
	case BUSINESS_REPORT:
		return 12
	}
	return 0
}

// Valid reports whether r is one of the four periodic report codes.
func (r ReportType) Valid() bool {
	switch r {
	case FIRST_QUARTER, HALF_YEAR, THIRD_QUARTER, BUSINESS_REPORT:
		return true
	}
	return false
}

const statusNoData = "013"

type SingleAccountResp struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	List    []SingleAccount `json:"list"`
}

// SingleAccount is one row of 단일회사 주요계정.
type SingleAccount struct {
	RceptNo         string `json:"rcept_no"`
	BsnsYear        string `json:"bsns_year"`
	CorpCode        string `json:"corp_code"`
	StockCode       string `json:"stock_code"`
	ReprtCode       string `json:"reprt_code"`
	AccountNm       string `json:"account_nm"`
	FsDiv           string `json:"fs_div"` // CFS: 연결, OFS: 별도
	FsNm            string `json:"fs_nm"`
	SjDiv           string `json:"sj_div"` // BS: 재무상태표, IS: 손익계산서
	SjNm            string `json:"sj_nm"`
	ThstrmNm        string `json:"thstrm_nm"`
	ThstrmDt        string `json:"thstrm_dt"`
	ThstrmAmount    string `json:"thstrm_amount"`
	ThstrmAddAmount string `json:"thstrm_add_amount"`
	FrmtrmNm        string `json:"frmtrm_nm"`
	FrmtrmDt        string `json:"frmtrm_dt"`
	FrmtrmAmount    string `json:"frmtrm_amount"`
	FrmtrmAddAmount string `json:"frmtrm_add_amount"`
	BfefrmtrmNm     string `json:"bfefrmtrm_nm"`
	BfefrmtrmDt     string `json:"bfefrmtrm_dt"`
	BfefrmtrmAmount string `json:"bfefrmtrm_amount"`
	Ord             string `json:"ord"`
	Currency        string `json:"currency"`
}

// 단일회사 주요계정 개발가이드
// https://opendart.fss.or.kr/guide/detail.do?apiGrpCd=DS003&apiId=2019016
func (c *DartClient) GetSingleAccounts(corpCode, bsnsYear string, reportCode ReportType) ([]SingleAccount, error) {
	raw, err := c.GetSingleAccountsRaw(corpCode, bsnsYear, reportCode)
	if err != nil {
		return nil, err
	}

	return DecodeSingleAccounts(raw)
}

// GetSingleAccountsRaw returns the response body as-is after checking the
// HTTP status, so callers can cache it.
func (c *DartClient) GetSingleAccountsRaw(corpCode, bsnsYear string, reportCode ReportType) ([]byte, error) {
	u, _ := url.Parse(baseURL + "/fnlttSinglAcnt.json")
	q := u.Query()
	q.Set("crtfc_key", c.key)               // API Key
	q.Set("corp_code", corpCode)            // 8자리 기업코드(예: 삼성전자 00126380)
	q.Set("bsns_year", bsnsYear)            // 사업연도
	q.Set("reprt_code", string(reportCode)) // 보고서 코드

	u.RawQuery = q.Encode()

	resp, err := c.client.Get(u.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("DART API call failed: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// DecodeSingleAccounts decodes a fnlttSinglAcnt.json body and maps DART
// status codes to errors.
func DecodeSingleAccounts(raw []byte) ([]SingleAccount, error) {
	var out SingleAccountResp
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}

	switch out.Status {
	case "000": // 000: 정상
	case statusNoData:
		return nil, fmt.Errorf("%w: %s", ErrNoData, out.Message)
	default:
		return nil, fmt.Errorf("DART error %s: %s", out.Status, out.Message)
	}

	for i := range out.List {
		out.List[i].AccountNm = strings.TrimSpace(out.List[i].AccountNm)
	}

	return out.List, nil
}

func New(apiKey string) *DartClient {
	return &DartClient{
		key: apiKey,
		client: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					// DART는 TLS1.2 호환이 확실, TLS1.2로 고정해서 협상 단순화
					MinVersion: tls.VersionTLS12,
					MaxVersion: tls.VersionTLS12,
					ServerName: "opendart.fss.or.kr",
					CipherSuites: []uint16{
						tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
						tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
						tls.TLS_RSA_WITH_AES_128_GCM_SHA256,
						tls.TLS_RSA_WITH_AES_256_GCM_SHA384,
					},
				},
			},
			Timeout: 20 * time.Second,
		},
	}
}
