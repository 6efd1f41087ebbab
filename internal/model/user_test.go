package model

import "testing"

// TestUser_DisplayName は表示名の解決順序を検証する。
func TestUser_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{
			name: "ユーザー名が優先される",
			user: User{Username: "ola", FirstName: "Ola", LastName: "Nordmann", Email: "ola@example.no"},
			want: "ola",
		},
		{
			name: "@を含むユーザー名は氏名にフォールバックする",
			user: User{Username: "ola@example.no", FirstName: "Ola", LastName: "Nordmann", Email: "ola@example.no"},
			want: "Ola Nordmann",
		},
		{
			name: "名のみの場合は名を返す",
			user: User{FirstName: "Kari", Email: "kari@example.no"},
			want: "Kari",
		},
		{
			name: "姓のみの場合は姓を返す",
			user: User{LastName: "Hansen", Email: "hansen@example.no"},
			want: "Hansen",
		},
		{
			name: "氏名も無い場合はメールアドレスを返す",
			user: User{Username: "per@example.no", Email: "per@example.no"},
			want: "per@example.no",
		},
		{
			name: "空白のみの氏名は未設定として扱う",
			user: User{FirstName: "  ", LastName: " ", Email: "x@example.no"},
			want: "x@example.no",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}
