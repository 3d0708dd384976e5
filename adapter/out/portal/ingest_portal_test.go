package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"

	"ingest_server/pkg/apperr"
)

const loginPage = `<html><body><form>
<input type="hidden" name="id_usuari" value="4211">
<input type="hidden" name="MAX_FILE_SIZE" value="2097152">
</form></body></html>`

func newLoginServer(t *testing.T, step2Location string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/user.php", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("action") {
		case "doLogin":
			if r.FormValue("username") == "" {
				t.Error("doLogin without username")
			}
			http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "abc123"})
			w.Write([]byte(loginPage))
		case "controlArxiuPas":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("step2 not multipart: %v", err)
			}
			if r.FormValue("id_usuari") != "4211" {
				t.Errorf("id_usuari = %q, want 4211", r.FormValue("id_usuari"))
			}
			if _, hdr, err := r.FormFile("userfile"); err != nil || hdr.Filename != "archivo_paso.txt" {
				t.Errorf("userfile missing or misnamed: %v", err)
			}
			if !strings.Contains(r.Header.Get("Cookie"), "PHPSESSID=abc123") {
				t.Error("step2 missing step1 cookie")
			}
			http.SetCookie(w, &http.Cookie{Name: "portal_auth", Value: "tok"})
			if step2Location != "" {
				w.Header().Set("Location", step2Location)
				w.WriteHeader(http.StatusFound)
				return
			}
			w.Write([]byte("<script>window.location.href='./sumari/index.php'</script>"))
		}
	})
	return httptest.NewServer(mux)
}

func TestLoginHandshake(t *testing.T) {
	srv := newLoginServer(t, "/sumari/index.php")
	defer srv.Close()

	session, err := Login(context.Background(), srv.URL, Credentials{
		Username: "admin", Password: "secret", Passfile: "clau-de-pas",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	header := session.CookieHeader()
	if !strings.Contains(header, "PHPSESSID=abc123") || !strings.Contains(header, "portal_auth=tok") {
		t.Errorf("cookie header missing merged cookies: %q", header)
	}
}

func TestLoginJsRedirectAccepted(t *testing.T) {
	srv := newLoginServer(t, "")
	defer srv.Close()

	if _, err := Login(context.Background(), srv.URL, Credentials{Username: "a", Password: "b"}); err != nil {
		t.Fatalf("JS redirect to sumari should count as success: %v", err)
	}
}

func TestLoginMissingHiddenFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/user.php", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Usuari o contrasenya incorrectes</body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := Login(context.Background(), srv.URL, Credentials{Username: "a", Password: "bad"})
	if err == nil {
		t.Fatal("want error when hidden fields are missing")
	}
	if apperr.AsAppError(err).Code != apperr.CodeLoginFailed {
		t.Errorf("code = %s, want LOGIN_FAILED", apperr.AsAppError(err).Code)
	}
	if !strings.Contains(err.Error(), "LOGIN_STEP1_FIELDS_MISSING") {
		t.Errorf("error should name the failed step: %v", err)
	}
}

func TestLoginStep2Failure(t *testing.T) {
	srv := newLoginServer(t, "/user.php?action=error")
	defer srv.Close()

	_, err := Login(context.Background(), srv.URL, Credentials{Username: "a", Password: "b"})
	if err == nil {
		t.Fatal("want error when step 2 does not reach sumari")
	}
	if !strings.Contains(err.Error(), "LOGIN_STEP2_FAILED") {
		t.Errorf("error should name the failed step: %v", err)
	}
}

func rosterHTML(rows string) string {
	return `<html><body><table id="userDataTable"><tbody>` + rows + `</tbody></table></body></html>`
}

func studentRow(id, first, last, class string) string {
	return `<tr><td>` + id + `</td><td>` + first + `</td><td>` + last +
		`</td><td>alu</td><td>` + class + `</td><td>actiu</td></tr>`
}

func newRosterServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/users.php", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("lletra_usuari") != "TOTS" {
			t.Error("listing must request all letters")
		}
		// Serve Latin-9 like the real portal does.
		encoded, err := charmap.ISO8859_15.NewEncoder().String(html)
		if err != nil {
			t.Fatalf("encoding fixture: %v", err)
		}
		w.Header().Set("Content-Type", "text/html; charset=ISO-8859-15")
		w.Write([]byte(encoded))
	})
	return httptest.NewServer(mux)
}

func TestFetchStudents(t *testing.T) {
	html := rosterHTML(
		studentRow("1001", "Núria", "Gràcia Pons", "Cinquè de Primària") +
			studentRow("1002", "Pol", "Vidal Mas", "Segon d'ESO (repetidor)") +
			studentRow("1003", "Aya", "Ahdor", "Aula d'acollida") +
			`<tr><td>x</td></tr>` +
			studentRow("abc", "Sense", "Id", "Infantil 3") +
			studentRow("1004", "", "Sense Nom", "Infantil 4"),
	)
	srv := newRosterServer(t, html)
	defer srv.Close()

	students, err := FetchStudents(context.Background(), srv.URL, &Session{}, 3)
	if err != nil {
		t.Fatalf("FetchStudents: %v", err)
	}
	if len(students) != 3 {
		t.Fatalf("got %d students, want 3", len(students))
	}

	if students[0].FirstName != "Núria" || students[0].LastName != "Gràcia Pons" {
		t.Errorf("accents lost in decoding: %+v", students[0])
	}
	if students[0].ClassID != 112 {
		t.Errorf("class id = %d, want 112", students[0].ClassID)
	}
	// Parenthetical suffix stripped for the id lookup but kept on the name.
	if students[1].ClassID != 115 || students[1].ClassName != "Segon d'ESO (repetidor)" {
		t.Errorf("class handling: %+v", students[1])
	}
	// Unknown class maps to 0.
	if students[2].ClassID != 0 {
		t.Errorf("unknown class id = %d, want 0", students[2].ClassID)
	}
}

func TestFetchStudentsSessionExpired(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/admin/users.php", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "/user.php")
		w.WriteHeader(http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := FetchStudents(context.Background(), srv.URL, &Session{}, 1)
	if apperr.AsAppError(err).Code != apperr.CodeSessionExpired {
		t.Fatalf("want SESSION_EXPIRED, got %v", err)
	}
}

func TestFetchStudentsStructureChanged(t *testing.T) {
	srv := newRosterServer(t, `<html><body><p>pàgina nova</p></body></html>`)
	defer srv.Close()

	_, err := FetchStudents(context.Background(), srv.URL, &Session{}, 1)
	if apperr.AsAppError(err).Code != apperr.CodeStructureChanged {
		t.Fatalf("want STRUCTURE_CHANGED, got %v", err)
	}
}

func TestFetchStudentsBelowThreshold(t *testing.T) {
	srv := newRosterServer(t, rosterHTML(studentRow("1", "Un", "Sol", "Infantil 3")))
	defer srv.Close()

	_, err := FetchStudents(context.Background(), srv.URL, &Session{}, 250)
	if apperr.AsAppError(err).Code != apperr.CodeStructureChanged {
		t.Fatalf("want STRUCTURE_CHANGED for short roster, got %v", err)
	}
	if !strings.Contains(err.Error(), "Expected > 250 students but found 1") {
		t.Errorf("message should carry counts: %v", err)
	}
}
