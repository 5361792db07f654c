// Package testutil 测试用的内存数据库和数据构造函数
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"parsgolf/internal/db"
	"parsgolf/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq atomic.Uint64

// NewDB 每个测试独立的 SQLite 内存库，已完成迁移
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(":memory:", nil)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func CreateUser(t testing.TB, gdb *gorm.DB, role string) *models.User {
	t.Helper()

	n := seq.Add(1)
	user := &models.User{
		Username: fmt.Sprintf("golfer%d", n),
		Email:    fmt.Sprintf("golfer%d@example.com", n),
		Role:     role,
	}
	require.NoError(t, gdb.Create(user).Error)
	return user
}

func CreateClub(t testing.TB, gdb *gorm.DB, name string, approved bool) *models.Club {
	t.Helper()

	club := &models.Club{Name: name}
	club.IsApproved = approved
	require.NoError(t, gdb.Create(club).Error)
	return club
}

func CreatePlayer(t testing.TB, gdb *gorm.DB, name string, approved bool) *models.Player {
	t.Helper()

	player := &models.Player{Name: name}
	player.IsApproved = approved
	require.NoError(t, gdb.Create(player).Error)
	return player
}

func CreateCourse(t testing.TB, gdb *gorm.DB, name string, approved bool) *models.Course {
	t.Helper()

	course := &models.Course{Name: name}
	course.IsApproved = approved
	require.NoError(t, gdb.Create(course).Error)
	return course
}
