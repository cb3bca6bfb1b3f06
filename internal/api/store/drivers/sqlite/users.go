package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/glimpse-social/glimpse/internal/api/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, name, username, email, password_hash, bio, avatar_key, avatar_url, role, banned_until, last_login, created_at, updated_at`

func scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	var bannedUntil, lastLogin sql.NullInt64
	var createdAt, updatedAt int64
	err := row.Scan(
		&u.ID, &u.Name, &u.Username, &u.Email, &u.PasswordHash,
		&u.Bio, &u.AvatarKey, &u.AvatarURL, &u.Role,
		&bannedUntil, &lastLogin, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.BannedUntil = fromUnixPtr(bannedUntil)
	u.LastLogin = fromUnixPtr(lastLogin)
	u.CreatedAt = fromUnix(createdAt)
	u.UpdatedAt = fromUnix(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, name, username, email, password_hash, bio, avatar_key, avatar_url, role, banned_until, last_login, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Username, u.Email, u.PasswordHash,
		u.Bio, u.AvatarKey, u.AvatarURL, u.Role,
		toUnixPtr(u.BannedUntil), toUnixPtr(u.LastLogin),
		toUnix(u.CreatedAt), toUnix(u.UpdatedAt),
	)
	return mapConflict(err)
}

func (r *usersRepo) UpdateProfile(ctx context.Context, userID, name, bio, avatarKey, avatarURL string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET name = ?, bio = ?, avatar_key = ?, avatar_url = ?, updated_at = ?
		WHERE id = ?`,
		name, bio, avatarKey, avatarURL, time.Now().Unix(), userID,
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID string, newHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().Unix(), userID,
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`,
		time.Now().Unix(), userID)
	return err
}

func (r *usersRepo) SetBannedUntil(ctx context.Context, userID string, until *time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET banned_until = ?, updated_at = ? WHERE id = ?`,
		toUnixPtr(until), time.Now().Unix(), userID,
	)
	if err != nil {
		return err
	}
	return requireRows(res)
}

func (r *usersRepo) ClearExpiredBans(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET banned_until = NULL
		WHERE banned_until IS NOT NULL AND banned_until <= ?`,
		time.Now().Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return err
	}
	return requireRows(res)
}

const profileSelect = `
	SELECT u.id, u.name, u.username, u.bio, u.avatar_url,
		(SELECT COUNT(*) FROM follows f WHERE f.following_id = u.id) AS follower_count,
		(SELECT COUNT(*) FROM follows f WHERE f.follower_id = u.id) AS following_count,
		(SELECT COUNT(*) FROM posts p WHERE p.author_id = u.id) AS post_count,
		EXISTS(SELECT 1 FROM follows f WHERE f.follower_id = ? AND f.following_id = u.id) AS is_following,
		u.created_at
	FROM users u`

func scanProfile(scan func(dest ...any) error) (domain.Profile, error) {
	var (
		p         domain.Profile
		createdAt int64
	)
	err := scan(
		&p.ID, &p.Name, &p.Username, &p.Bio, &p.AvatarURL,
		&p.FollowerCount, &p.FollowingCount, &p.PostCount,
		&p.IsFollowing, &createdAt,
	)
	if err != nil {
		return domain.Profile{}, err
	}
	p.CreatedAt = fromUnix(createdAt)
	return p, nil
}

func (r *usersRepo) GetProfile(ctx context.Context, username, viewerID string) (domain.Profile, error) {
	row := r.db.QueryRowContext(ctx, profileSelect+` WHERE u.username = ?`, viewerID, username)
	p, err := scanProfile(row.Scan)
	if err != nil {
		return domain.Profile{}, mapNotFound(err)
	}
	return p, nil
}

func (r *usersRepo) ListProfiles(ctx context.Context, search, viewerID string, limit, offset int) ([]domain.Profile, int64, error) {
	filter := `(? = '' OR u.username LIKE '%' || ? || '%' OR u.name LIKE '%' || ? || '%')`

	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users u WHERE `+filter,
		search, search, search,
	).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		profileSelect+` WHERE `+filter+`
		ORDER BY follower_count DESC, u.id ASC
		LIMIT ? OFFSET ?`,
		viewerID, search, search, search, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// requireRows converts a zero-row UPDATE/DELETE into ErrNotFound.
func requireRows(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}
