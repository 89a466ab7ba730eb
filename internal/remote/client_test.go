package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/kidsync/internal/common"
	"github.com/dmitrijs2005/kidsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServlet struct {
	totalPages int
	pages      map[int]string
	detail     string
	failPage   int

	begins atomic.Int32
	lastQS atomic.Value
}

func (f *fakeServlet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/servlet/JSONDataServlet" {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	f.lastQS.Store(r.URL.RawQuery)

	switch {
	case q.Get("action") == "publicSearch" && q.Get("search") == "new":
		f.begins.Add(1)
		fmt.Fprintf(w, `{"status":"success","totalRecords":%d,"totalPages":%d}`, f.totalPages*2, f.totalPages)
	case q.Get("action") == "publicSearch" && q.Get("goToPage") != "":
		n, _ := strconv.Atoi(q.Get("goToPage"))
		if n == f.failPage {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(f.pages[n]))
	case q.Get("action") == "childDetail":
		_, _ = w.Write([]byte(f.detail))
	default:
		http.Error(w, "bad request", http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T, h http.Handler) *HTTPClient {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := NewHTTPClient(ts.URL+"/servlet/", "CA", 2*time.Second, logging.Nop())
	require.NoError(t, err)
	return c
}

const pageOne = `{"persons":[
 {"caseNumber":"111","orgPrefix":"NCMC","orgName":"NCMEC","firstName":"Ann","middleName":"B","lastName":"Lee",
  "missingCity":"Fresno","missingState":"CA","missingCountry":"US","missingDate":"Mar 04, 2017 12:00:00 AM",
  "age":12,"approxAge":"","thumbnailUrl":"/t/111.jpg","caseType":"Endangered Runaway","race":"White"},
 {"caseNumber":"222","orgPrefix":"NCMC","firstName":"Bo","lastName":"Ray","approxAge":"15-25","age":"0","missingDate":"garbage"},
 {"orgPrefix":"NCMC","firstName":"NoCase"},
 {"caseNumber":"333","orgPrefix":"NCMC","approxAge":"x-y"}
]}`

func TestFetchPageCount(t *testing.T) {
	f := &fakeServlet{totalPages: 3}
	c := newTestClient(t, f)

	meta, err := c.FetchPageCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 6, meta.TotalRecords)
	assert.Contains(t, f.lastQS.Load().(string), "missState=CA")
	assert.Contains(t, f.lastQS.Load().(string), "subjToSearch=child")
}

func TestFetchPageCount_NonSuccessIsNoData(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"failure"}`))
	}))

	_, err := c.FetchPageCount(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNoData))
}

func TestFetchPage_ParsesAndSkipsBadRecords(t *testing.T) {
	f := &fakeServlet{totalPages: 2, pages: map[int]string{1: pageOne}}
	c := newTestClient(t, f)

	resp, err := c.FetchPage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.begins.Load(), "page fetch must start a search first")
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 2, resp.TotalPages)
	require.Len(t, resp.Records, 2)

	ann := resp.Records[0]
	assert.Equal(t, "NCMC111", ann.NaturalKey)
	assert.Equal(t, "NCMEC", ann.OrgName)
	assert.Equal(t, "Ann B Lee", ann.FullName())
	assert.Equal(t, "Fresno", ann.City)
	assert.Equal(t, 12, ann.Age)
	assert.Equal(t, time.Date(2017, 3, 4, 0, 0, 0, 0, time.UTC).UnixMilli(), ann.DateMissing)
	assert.Equal(t, "White", ann.Race)
	assert.False(t, ann.HasDetail)

	bo := resp.Records[1]
	assert.Equal(t, "NCMC222", bo.NaturalKey)
	assert.Equal(t, 15, bo.EstAgeLower)
	assert.Equal(t, 25, bo.EstAgeUpper)
	assert.Zero(t, bo.DateMissing)
}

func TestFetchPage_PastLastPageIsNoData(t *testing.T) {
	f := &fakeServlet{totalPages: 2}
	c := newTestClient(t, f)

	_, err := c.FetchPage(context.Background(), 3)
	assert.True(t, errors.Is(err, common.ErrNoData))

	_, err = c.FetchPage(context.Background(), 0)
	assert.True(t, errors.Is(err, common.ErrNoData))
}

func TestFetchPage_MissingPersonsIsNoData(t *testing.T) {
	f := &fakeServlet{totalPages: 1, pages: map[int]string{1: `{"status":"success"}`}}
	c := newTestClient(t, f)

	_, err := c.FetchPage(context.Background(), 1)
	assert.True(t, errors.Is(err, common.ErrNoData))
}

func TestFetchPage_HTTPErrorIsNetworkFailure(t *testing.T) {
	f := &fakeServlet{totalPages: 2, failPage: 2}
	c := newTestClient(t, f)

	_, err := c.FetchPage(context.Background(), 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNetworkFailure))
	assert.False(t, errors.Is(err, common.ErrNoData))
}

func TestFetchPage_MalformedJSONIsNetworkFailure(t *testing.T) {
	f := &fakeServlet{totalPages: 1, pages: map[int]string{1: `{"persons": [`}}
	c := newTestClient(t, f)

	_, err := c.FetchPage(context.Background(), 1)
	assert.True(t, errors.Is(err, common.ErrNetworkFailure))
}

func TestFetchDetail(t *testing.T) {
	f := &fakeServlet{detail: `{"status":"success","childBean":{
		"sex":"Female","eyeColor":"Blue","birthDate":"Jan 15, 2005 12:00:00 AM",
		"height":"60","heightInInch":true,"weight":45,"weightInPound":false,"circumstance":"Last seen at school."}}`}
	c := newTestClient(t, f)

	d, err := c.FetchDetail(context.Background(), "NCMC", "111")
	require.NoError(t, err)
	require.NotNil(t, d)

	assert.Equal(t, "Female", *d.Gender)
	assert.Equal(t, "Blue", *d.EyeColor)
	assert.Nil(t, d.HairColor)
	assert.Equal(t, 60.0, *d.Height)
	assert.True(t, *d.HeightInInch)
	assert.Equal(t, 45.0, *d.Weight)
	assert.False(t, *d.WeightInPound)
	assert.Equal(t, "Last seen at school.", *d.Description)
	assert.Equal(t, time.Date(2005, 1, 15, 0, 0, 0, 0, time.UTC).UnixMilli(), *d.DateOfBirth)

	qs := f.lastQS.Load().(string)
	assert.Contains(t, qs, "caseNum=111")
	assert.Contains(t, qs, "orgPrefix=NCMC")
}

func TestFetchDetail_NoDetailIsNotAnError(t *testing.T) {
	for name, body := range map[string]string{
		"non-success":     `{"status":"failure","childBean":{"sex":"Male"}}`,
		"missing bean":    `{"status":"success"}`,
		"null bean":       `{"status":"success","childBean":null}`,
		"no status field": `{}`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, &fakeServlet{detail: body})
			d, err := c.FetchDetail(context.Background(), "NCMC", "1")
			require.NoError(t, err)
			assert.Nil(t, d)
		})
	}
}

func TestFetchDetail_BadBirthDateKeepsOtherFields(t *testing.T) {
	c := newTestClient(t, &fakeServlet{detail: `{"status":"success","childBean":{"sex":"Male","birthDate":"yesterday"}}`})

	d, err := c.FetchDetail(context.Background(), "NCMC", "1")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "Male", *d.Gender)
	assert.Nil(t, d.DateOfBirth)
}

func TestNewHTTPClient_InvalidURL(t *testing.T) {
	_, err := NewHTTPClient("://bad", "CA", 0, logging.Nop())
	assert.Error(t, err)
}
