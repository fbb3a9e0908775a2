package member_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shepherd-app/shepherd/core"
	"github.com/shepherd-app/shepherd/core/member"
	"github.com/shepherd-app/shepherd/tests"
)

func TestNewMember_Validate(t *testing.T) {
	env := testutil.NewEnv(t)
	testutil.CreateMember(t, env.MbrRepo, "Jane", "jane@church.com", "", member.RoleTeacher, "", "", "")

	tests := []struct {
		name      string
		nm        member.NewMember
		wantField string
	}{
		{name: "blank name", nm: member.NewMember{Name: "  ", Email: "a@b.com", Password: "s3cure-pa55"}, wantField: "name"},
		{name: "invalid email", nm: member.NewMember{Name: "A", Email: "nope", Password: "s3cure-pa55"}, wantField: "email"},
		{name: "short password", nm: member.NewMember{Name: "A", Email: "a@b.com", Password: "abc12"}, wantField: "password"},
		{name: "whitespace in password", nm: member.NewMember{Name: "A", Email: "a@b.com", Password: "s3cure pa55"}, wantField: "password"},
		{name: "numeric password", nm: member.NewMember{Name: "A", Email: "a@b.com", Password: "1234567890"}, wantField: "password"},
		{name: "password like name", nm: member.NewMember{Name: "Bartholomew", Email: "a@b.com", Password: "bartholomew1"}, wantField: "password"},
		{name: "password like email", nm: member.NewMember{Name: "A", Email: "gracechurch@b.com", Password: "gracechurch"}, wantField: "password"},
		{name: "confirmation mismatch", nm: member.NewMember{Name: "A", Email: "a@b.com", Password: "s3cure-pa55", PasswordConfirm: "other"}, wantField: "password_confirm"},
		{name: "email taken, other case", nm: member.NewMember{Name: "A", Email: " JANE@church.com", Password: "s3cure-pa55"}, wantField: "email"},
		{name: "valid", nm: member.NewMember{Name: "A", Email: "a@b.com", Password: "s3cure-pa55", PasswordConfirm: "s3cure-pa55"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nm.Validate(env.Members)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, fieldsOf(err), tt.wantField)
		})
	}
}

// fieldsOf lists the fields in error, whichever validation error type err is.
func fieldsOf(err error) []string {
	var fields []string
	switch verr := errors.Cause(err).(type) {
	case *core.ValidationError:
		for _, f := range verr.Fields {
			fields = append(fields, f.Field)
		}
	case validator.ValidationErrors:
		for _, fe := range verr {
			fields = append(fields, fe.Field())
		}
	}
	return fields
}

func TestService_Register(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()

	nm := member.NewMember{Name: "Alice", Email: "a@b.com", Password: "s3cure-pa55"}
	require.NoError(t, nm.Validate(env.Members))
	mbr, err := env.Members.Register(ctx, nm)
	require.NoError(t, err)

	assert.NotEmpty(t, mbr.ID)
	assert.Equal(t, member.RolePending, mbr.Role)
	assert.False(t, mbr.HasOrganization())
	assert.NoError(t, mbr.CheckPassword("s3cure-pa55"))

	got, err := env.Members.GetByID(ctx, mbr.ID)
	require.NoError(t, err)
	assert.Equal(t, mbr.Email, got.Email)

	sent := env.Mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "a@b.com", sent[0].To[0].Address)
	assert.Contains(t, sent[0].TextContent, "Hello Alice")

	// second registration with the same email, whatever the case
	_, err = env.Members.Register(ctx, member.NewMember{Name: "Alice", Email: "A@B.com", Password: "s3cure-pa55"})
	require.Error(t, err)
	assert.True(t, core.IsValidationError(err))
	assert.Equal(t, member.ErrEmailExists.Error(), err.Error())
}

func TestService_Authenticate(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	mbr := testutil.CreateMember(t, env.MbrRepo, "Jane", "jane@church.com", "s3cure-pa55", member.RoleTeacher, "", "", "")

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "unknown email", email: "nobody@church.com", pwd: "s3cure-pa55", wantErr: member.ErrInvalidCredentials},
		{name: "wrong password", email: "jane@church.com", pwd: "wrong-pa55", wantErr: member.ErrInvalidCredentials},
		{name: "valid, email case ignored", email: " Jane@Church.com ", pwd: "s3cure-pa55"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := env.Members.Authenticate(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, mbr.ID, got.ID)
		})
	}
}

func TestService_Update(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	jane := testutil.CreateMember(t, env.MbrRepo, "Jane", "jane@church.com", "s3cure-pa55", member.RoleTeacher, "", "", "")
	testutil.CreateMember(t, env.MbrRepo, "Mike", "mike@church.com", "", member.RoleTeacher, "", "", "")

	t.Run("unknown member", func(t *testing.T) {
		name := "Ghost"
		_, err := env.Members.Update(ctx, "missing", member.UpdateMember{Name: &name})
		assert.Equal(t, member.ErrNotFound, errors.Cause(err))
	})

	t.Run("email taken", func(t *testing.T) {
		email := "MIKE@church.com"
		um := member.UpdateMember{Email: &email}
		err := um.Validate(jane, env.Members)
		require.Error(t, err)
		assert.True(t, core.IsValidationError(err))
	})

	t.Run("profile and password", func(t *testing.T) {
		name, phone := "Jane Choi", "010-0000-0000"
		um := member.UpdateMember{Name: &name, PhoneNumber: &phone, Password: "n3w-secret", PasswordConfirm: "n3w-secret"}
		require.NoError(t, um.Validate(jane, env.Members))
		got, err := env.Members.Update(ctx, jane.ID, um)
		require.NoError(t, err)

		assert.Equal(t, "Jane Choi", got.Name)
		assert.Equal(t, "010-0000-0000", got.PhoneNumber)
		assert.Equal(t, jane.Role, got.Role)
		assert.NoError(t, got.CheckPassword("n3w-secret"))
		assert.True(t, got.UpdatedAt.After(jane.UpdatedAt) || got.UpdatedAt.Equal(jane.UpdatedAt))
	})
}

func TestService_passwordReset(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	mbr := testutil.CreateMember(t, env.MbrRepo, "Jane", "jane@church.com", "s3cure-pa55", member.RoleTeacher, "", "", "")

	// unknown emails are silently ignored
	require.NoError(t, env.Members.RequestPasswordReset(ctx, "nobody@church.com"))
	assert.Empty(t, env.Mail.SentMessages())

	require.NoError(t, env.Members.RequestPasswordReset(ctx, " JANE@church.com"))
	sent := env.Mail.SentMessages()
	require.Len(t, sent, 1)
	data := sent[0].TemplateData.(map[string]string)
	assert.Equal(t, member.EncodeUID(mbr), data["UID"])
	assert.Contains(t, sent[0].TextContent, "/password-reset/"+data["UID"]+"/"+data["Token"])

	reset := func(uid, token, pwd string) error {
		rp := member.ResetPassword{UID: uid, Token: token, Password: pwd, PasswordConfirm: pwd}
		if err := rp.Validate(); err != nil {
			return err
		}
		_, err := env.Members.ResetPassword(ctx, rp)
		return err
	}

	tests := []struct {
		name      string
		uid       string
		token     string
		pwd       string
		wantField string
	}{
		{name: "missing token", uid: data["UID"], pwd: "n3w-pa55word", wantField: "token"},
		{name: "malformed uid", uid: "%%%", token: data["Token"], pwd: "n3w-pa55word", wantField: "token"},
		{name: "unknown member", uid: member.EncodeUID(member.Member{ID: "ghost"}), token: data["Token"], pwd: "n3w-pa55word", wantField: "token"},
		{name: "tampered token", uid: data["UID"], token: data["Token"] + "x", pwd: "n3w-pa55word", wantField: "token"},
		{name: "weak password", uid: data["UID"], token: data["Token"], pwd: "1234", wantField: "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reset(tt.uid, tt.token, tt.pwd)
			require.Error(t, err)
			assert.Contains(t, fieldsOf(err), tt.wantField)
		})
	}

	require.NoError(t, reset(data["UID"], data["Token"], "n3w-pa55word"))
	_, err := env.Members.Authenticate(ctx, "jane@church.com", "n3w-pa55word")
	assert.NoError(t, err)

	// links are single use: the password changed
	err = reset(data["UID"], data["Token"], "an0ther-pa55")
	require.Error(t, err)
	assert.Equal(t, member.ErrInvalidResetLink.Error(), err.Error())
}

func TestMember_Public(t *testing.T) {
	mbr := member.Member{ID: "1"}
	require.NoError(t, mbr.SetPassword("s3cure-pa55"))
	assert.NotEmpty(t, mbr.PasswordHash)
	assert.Empty(t, mbr.Public().PasswordHash)
}

func TestFilter_Match(t *testing.T) {
	mbr := member.Member{OrganizationID: "o1", DepartmentID: "d1", Role: member.RoleTeacher}
	assert.True(t, member.Filter{}.Match(mbr))
	assert.True(t, member.Filter{OrganizationID: "o1", Roles: []member.Role{member.RoleAdmin, member.RoleTeacher}}.Match(mbr))
	assert.False(t, member.Filter{OrganizationID: "o2"}.Match(mbr))
	assert.False(t, member.Filter{DepartmentID: "d2"}.Match(mbr))
	assert.False(t, member.Filter{Roles: []member.Role{member.RoleAdmin}}.Match(mbr))
}
