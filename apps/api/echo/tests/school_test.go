package tests

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/trezcool/stadi/core/school"
	"github.com/trezcool/stadi/core/user"
	testutil "github.com/trezcool/stadi/tests"
)

func Test_schoolApi_schoolQueryAndCreate(t *testing.T) {
	app := setup(t)

	sch1 := testutil.CreateSchool(t, schRepo, "Lycee Mobokoli", "12 Av. des Ecoles, Kinshasa")
	sch2 := testutil.CreateSchool(t, schRepo, "Institut Lumiere", "3 Blvd Lumumba, Goma")

	owner := testutil.CreateUser(t, usrRepo, "Owner", "owner1", "owner@test.cd", "", []string{user.RoleAdminOwner}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateSchoolUser(t, usrRepo, sch1.ID, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent})

	ownerToken := getToken(t, owner)
	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)

	searchPath := func(search string) string {
		v := make(url.Values)
		v.Add("search", search)
		return "/v1/schools?" + v.Encode()
	}

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodGet, path: "/v1/schools",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Query: admin required", method: http.MethodGet, path: "/v1/schools", token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Query all", method: http.MethodGet, path: "/v1/schools", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, sch2, sch1),
		},
		{
			name: "Query search", method: http.MethodGet, path: searchPath("lumiere"), token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, sch2),
		},
		{
			name: "Create: owner required", method: http.MethodPost, path: "/v1/schools", token: adminToken,
			body:     marchallObj(t, school.NewSchool{Name: "Ecole Nzela", Address: "Bukavu"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Create: name required", method: http.MethodPost, path: "/v1/schools", token: ownerToken,
			body:     marchallObj(t, school.NewSchool{Address: "Bukavu"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "Create: duplicate name", method: http.MethodPost, path: "/v1/schools", token: ownerToken,
			body:     marchallObj(t, school.NewSchool{Name: "lycee mobokoli", Address: "Kinshasa"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"name": "a school with this name already exists"}),
		},
		{
			name: "Created", method: http.MethodPost, path: "/v1/schools", token: ownerToken,
			body:     marchallObj(t, school.NewSchool{Name: "Ecole Nzela", Address: "Bukavu"}),
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_schoolApi_schoolDetail(t *testing.T) {
	app := setup(t)

	sch := testutil.CreateSchool(t, schRepo, "Lycee Mobokoli", "Kinshasa")
	otherSch := testutil.CreateSchool(t, schRepo, "Institut Lumiere", "Goma")

	owner := testutil.CreateUser(t, usrRepo, "Owner", "owner1", "owner@test.cd", "", []string{user.RoleAdminOwner}, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	member := testutil.CreateSchoolUser(t, usrRepo, sch.ID, "Hero", "hero01", "hero@test.cd", "", []string{user.RoleStudent})

	ownerToken := getToken(t, owner)
	adminToken := getToken(t, admin)
	memberToken := getToken(t, member)

	tests := []httpTest{
		{
			name: "Member retrieves own school", method: http.MethodGet, path: "/v1/schools/" + sch.ID, token: memberToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, sch),
		},
		{
			name: "Member cannot see other school", method: http.MethodGet, path: "/v1/schools/" + otherSch.ID, token: memberToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, errNotFound),
		},
		{
			name: "Admin retrieves any school", method: http.MethodGet, path: "/v1/schools/" + otherSch.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, otherSch),
		},
		{
			name: "Update: admin required", method: http.MethodPut, path: "/v1/schools/" + sch.ID, token: memberToken,
			body:     marchallObj(t, school.UpdateSchool{Name: "Nouveau Lycee"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Updated", method: http.MethodPut, path: "/v1/schools/" + sch.ID, token: adminToken,
			body:     marchallObj(t, school.UpdateSchool{Name: "Nouveau Lycee"}),
			wantCode: http.StatusOK,
		},
		{
			name: "Destroy: owner required", method: http.MethodDelete, path: "/v1/schools/" + otherSch.ID, token: adminToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Destroyed", method: http.MethodDelete, path: "/v1/schools/" + otherSch.ID, token: ownerToken,
			wantCode: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			switch tt.wantCode {
			case http.StatusNoContent:
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
			case http.StatusOK:
				if tt.method == http.MethodPut {
					if rec.Code != tt.wantCode {
						t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
					}
					return
				}
				checkCodeAndData(t, tt, rec)
			default:
				checkCodeAndData(t, tt, rec)
			}
		})
	}

	if _, err := schRepo.GetSchoolByID(context.Background(), otherSch.ID); err != school.ErrNotFound {
		t.Errorf("GetSchoolByID() after destroy = %v; want school.ErrNotFound", err)
	}
	refreshed, err := schRepo.GetSchoolByID(context.Background(), sch.ID)
	if err != nil {
		t.Fatalf("GetSchoolByID() failed: %v", err)
	}
	if refreshed.Name != "Nouveau Lycee" {
		t.Errorf("failed! name = %s; want %s", refreshed.Name, "Nouveau Lycee")
	}
}
