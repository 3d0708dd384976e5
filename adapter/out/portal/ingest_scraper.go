package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/encoding/charmap"

	"ingest_server/core/domain"
	"ingest_server/pkg/apperr"
	"ingest_server/pkg/httputil"
)

// classNameToID maps the portal's class labels to its internal class ids.
var classNameToID = map[string]int{
	"Infantil 3":         105,
	"Infantil 4":         106,
	"Infantil 5":         107,
	"Primer de Primària": 108,
	"Segon de Primària":  109,
	"Tercer de Primària": 110,
	"Quart de Primària":  111,
	"Cinquè de Primària": 112,
	"Sisè de Primària":   113,
	"Primer d'ESO":       114,
	"Segon d'ESO":        115,
	"Tercer d'ESO":       116,
	"Quart d'ESO":        117,
}

var classSuffixRe = regexp.MustCompile(`\s*\(.*\)$`)

// FetchStudents posts the unfiltered listing form and parses the student
// table. minExpected guards against a silently truncated or restyled
// page being mistaken for a valid (much smaller) roster.
func FetchStudents(ctx context.Context, baseURL string, session *Session, minExpected int) ([]*domain.ScrapedStudent, error) {
	form := url.Values{}
	form.Set("lletra_usuari", "TOTS")
	form.Set("cerca_usuari", "")
	form.Set("classe", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		baseURL+"/admin/users.php?tipus=alu&selected=alu", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cookie", session.CookieHeader())

	resp, err := httputil.PortalClient().Do(req)
	if err != nil {
		return nil, apperr.ExternalError("portal student list", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		return nil, apperr.SessionExpired(
			"SESSION_EXPIRED: Redirected when fetching student list (likely session expired)")
	}

	// The portal serves legacy Latin-9 pages.
	decoded := charmap.ISO8859_15.NewDecoder().Reader(resp.Body)
	doc, err := goquery.NewDocumentFromReader(decoded)
	if err != nil {
		return nil, apperr.ExternalError("portal student list", err)
	}

	rows := doc.Find("#userDataTable tbody tr")
	if rows.Length() == 0 {
		return nil, apperr.StructureChanged(
			"STRUCTURE_CHANGED: No rows found in #userDataTable tbody. The portal markup may have changed.")
	}

	var students []*domain.ScrapedStudent
	rows.Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 6 {
			return
		}

		id, err := strconv.ParseInt(strings.TrimSpace(cells.Eq(0).Text()), 10, 64)
		if err != nil {
			return
		}
		firstName := strings.TrimSpace(cells.Eq(1).Text())
		lastName := strings.TrimSpace(cells.Eq(2).Text())
		if firstName == "" || lastName == "" {
			return
		}

		className := strings.TrimSpace(cells.Eq(4).Text())
		// Suffixes like "(repetidor)" are kept for display but stripped
		// for the class id lookup.
		baseClassName := strings.TrimSpace(classSuffixRe.ReplaceAllString(className, ""))
		classID := classNameToID[baseClassName]
		if classID == 0 {
			classID = classNameToID[className]
		}

		students = append(students, &domain.ScrapedStudent{
			ClickeduID: id,
			FirstName:  firstName,
			LastName:   lastName,
			ClassID:    classID,
			ClassName:  className,
		})
	})

	if len(students) < minExpected {
		return nil, apperr.StructureChanged(fmt.Sprintf(
			"STRUCTURE_CHANGED: Expected > %d students but found %d. The portal markup may have changed.",
			minExpected, len(students)))
	}
	return students, nil
}
