package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nao1215/pushhub/internal/dispatch"
	"github.com/nao1215/pushhub/pkg/httpclient"
)

// RemoteDirectory は外部のユーザーディレクトリサービスにロール所属を問い合わせる。
// GET /api/v1/roles/{role_id}/members が {"user_ids": [...]} を返すことを前提とする。
type RemoteDirectory struct {
	// client はディレクトリサービスへの通信クライアント。
	client *httpclient.Client
}

var _ dispatch.RoleDirectory = (*RemoteDirectory)(nil)

// NewRemoteDirectory は新しいRemoteDirectoryを生成する。
func NewRemoteDirectory(client *httpclient.Client) *RemoteDirectory {
	return &RemoteDirectory{client: client}
}

// membersResponse はロール所属の問い合わせ結果。
type membersResponse struct {
	// UserIDs はロールを持つユーザーIDの一覧。
	UserIDs []string `json:"user_ids"`
}

// MembersOf は指定ロールを持つユーザーIDの一覧を返す。
// ディレクトリが404を返した場合は所属ユーザーなしとして扱う。
func (d *RemoteDirectory) MembersOf(ctx context.Context, roleID string) ([]string, error) {
	var resp membersResponse
	err := d.client.GetJSON(ctx, "/api/v1/roles/"+url.PathEscape(roleID)+"/members", &resp)
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("ロール所属の問い合わせに失敗: %w", err)
	}
	return resp.UserIDs, nil
}
