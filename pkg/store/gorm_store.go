package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"moodflix/pkg/domain"
)

const migrateLockID int64 = 66361224

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock so
// several replicas can start at once.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, migrate); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func migrate(tx *gorm.DB) error {
	if err := tx.AutoMigrate(&UserModel{}, &RecommendationModel{}, &CommentModel{}, &FavoriteModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := tx.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_user_models_username_lower ON user_models (lower(username))`).Error; err != nil {
		return fmt.Errorf("create username index: %w", err)
	}
	if err := tx.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE table_schema = 'public' AND constraint_name = 'recommendation_models_user_id_fkey'
			) THEN
				ALTER TABLE recommendation_models
				ADD CONSTRAINT recommendation_models_user_id_fkey
				FOREIGN KEY (user_id) REFERENCES user_models(id) ON DELETE CASCADE;
			END IF;
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE table_schema = 'public' AND constraint_name = 'comment_models_user_id_fkey'
			) THEN
				ALTER TABLE comment_models
				ADD CONSTRAINT comment_models_user_id_fkey
				FOREIGN KEY (user_id) REFERENCES user_models(id) ON DELETE CASCADE;
			END IF;
			IF NOT EXISTS (
				SELECT 1 FROM information_schema.table_constraints
				WHERE table_schema = 'public' AND constraint_name = 'favorite_models_user_id_fkey'
			) THEN
				ALTER TABLE favorite_models
				ADD CONSTRAINT favorite_models_user_id_fkey
				FOREIGN KEY (user_id) REFERENCES user_models(id) ON DELETE CASCADE;
			END IF;
		END $$;
	`).Error; err != nil {
		return fmt.Errorf("ensure user foreign keys: %w", err)
	}
	return nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateUser inserts a new user; unique violations map to ErrDuplicate.
func (s *GormStore) CreateUser(u domain.User) error {
	model := userToModel(u)
	if err := s.db.Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	return s.firstUser("id = ?", id)
}

// GetUserByUsername looks a user up case-insensitively.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	return s.firstUser("lower(username) = lower(?)", strings.TrimSpace(username))
}

// GetUserByEmail looks up a user by (lower-cased) email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	return s.firstUser("email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (s *GormStore) firstUser(query string, args ...any) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where(query, args...).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// HasUsernameOrEmail checks whether either identifier is taken.
func (s *GormStore) HasUsernameOrEmail(username, email string) (bool, error) {
	var count int64
	err := s.db.Model(&UserModel{}).
		Where("lower(username) = lower(?) OR email = ?", strings.TrimSpace(username), strings.ToLower(strings.TrimSpace(email))).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdatePassword replaces the stored hash.
func (s *GormStore) UpdatePassword(userID, passwordHash string, at time.Time) error {
	res := s.db.Model(&UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"updated_at":    at.UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SaveRecommendations stores a batch in one transaction.
func (s *GormStore) SaveRecommendations(recs []domain.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}
	models := recommendationModels(recs)
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&models, 100).Error
	})
}

// ListRecommendations returns a user's recommendations, newest first.
// Rows saved in the same batch keep their insertion order.
func (s *GormStore) ListRecommendations(userID string) ([]domain.Recommendation, error) {
	var models []RecommendationModel
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("position ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Recommendation, 0, len(models))
	for _, m := range models {
		out = append(out, recommendationFromModel(m))
	}
	return out, nil
}

// AddComment records a comment.
func (s *GormStore) AddComment(c domain.Comment) error {
	model := CommentModel{
		ID:        c.ID,
		UserID:    c.UserID,
		MovieID:   c.MovieID,
		Text:      c.Text,
		CreatedAt: c.CreatedAt.UTC(),
	}
	return s.db.Create(&model).Error
}

type commentRow struct {
	ID        string
	UserID    string
	MovieID   int64
	Text      string
	CreatedAt time.Time
	Username  string
}

// ListComments returns comments on a movie joined with their authors, newest first.
func (s *GormStore) ListComments(movieID int64) ([]domain.CommentView, error) {
	var rows []commentRow
	if err := s.db.Table("comment_models AS c").
		Select("c.id, c.user_id, c.movie_id, c.text, c.created_at, u.username").
		Joins("JOIN user_models u ON u.id = c.user_id").
		Where("c.movie_id = ?", movieID).
		Order("c.created_at DESC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.CommentView, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.CommentView{
			ID:        r.ID,
			MovieID:   r.MovieID,
			AuthorID:  r.UserID,
			Username:  r.Username,
			Text:      r.Text,
			CreatedAt: r.CreatedAt,
		})
	}
	return out, nil
}

// AddFavorite inserts the pair unless it already exists.
func (s *GormStore) AddFavorite(f domain.Favorite) (bool, error) {
	model := FavoriteModel{UserID: f.UserID, MovieID: f.MovieID, CreatedAt: f.CreatedAt.UTC()}
	res := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&model)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RemoveFavorite deletes the pair; missing pairs are not an error.
func (s *GormStore) RemoveFavorite(userID string, movieID int64) error {
	return s.db.Delete(&FavoriteModel{}, "user_id = ? AND movie_id = ?", userID, movieID).Error
}

// IsFavorite reports whether the pair exists.
func (s *GormStore) IsFavorite(userID string, movieID int64) (bool, error) {
	var count int64
	if err := s.db.Model(&FavoriteModel{}).
		Where("user_id = ? AND movie_id = ?", userID, movieID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListFavorites returns a user's favorites, newest first.
func (s *GormStore) ListFavorites(userID string) ([]domain.Favorite, error) {
	var models []FavoriteModel
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Favorite, 0, len(models))
	for _, m := range models {
		out = append(out, domain.Favorite{UserID: m.UserID, MovieID: m.MovieID, CreatedAt: m.CreatedAt})
	}
	return out, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func recommendationToModel(r domain.Recommendation) RecommendationModel {
	return RecommendationModel{
		ID:         r.ID,
		UserID:     r.UserID,
		Question:   r.Question,
		MovieTitle: r.MovieTitle,
		MovieID:    r.MovieID,
		Genres:     r.Genres,
		CreatedAt:  r.CreatedAt.UTC(),
	}
}

// recommendationModels maps a batch and records each row's position in it.
func recommendationModels(recs []domain.Recommendation) []RecommendationModel {
	models := make([]RecommendationModel, 0, len(recs))
	for i, r := range recs {
		m := recommendationToModel(r)
		m.Position = i
		models = append(models, m)
	}
	return models
}

func recommendationFromModel(m RecommendationModel) domain.Recommendation {
	return domain.Recommendation{
		ID:         m.ID,
		UserID:     m.UserID,
		Question:   m.Question,
		MovieTitle: m.MovieTitle,
		MovieID:    m.MovieID,
		Genres:     []string(m.Genres),
		CreatedAt:  m.CreatedAt,
	}
}
