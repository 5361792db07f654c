package services

import (
	"context"
	"testing"
	"time"

	"parsgolf/internal/models"
	"parsgolf/internal/testutil"
	"parsgolf/internal/utils"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCatalog(t *testing.T, gdb *gorm.DB) *CatalogService {
	cache, err := utils.NewCache(16)
	require.NoError(t, err)
	return NewCatalogService(gdb, nil, cache)
}

func ids(res *ListResult) []uint {
	out := make([]uint, len(res.Items))
	for i, item := range res.Items {
		out[i] = item.Entity.Ref().ID
	}
	return out
}

func TestParseSort(t *testing.T) {
	require.Equal(t, SortVotes, ParseSort(models.KindClub, ""))
	require.Equal(t, SortNewest, ParseSort(models.KindClub, "newest"))
	require.Equal(t, SortName, ParseSort(models.KindCourse, "NAME"))
	require.Equal(t, SortRank, ParseSort(models.KindPlayer, "rank"))
	require.Equal(t, SortVotes, ParseSort(models.KindClub, "rank"))
	require.Equal(t, SortVotes, ParseSort(models.KindClub, "random"))
}

func TestListByVotes(t *testing.T) {
	gdb := testutil.NewDB(t)
	catalog := newCatalog(t, gdb)
	votes := NewVoteService(gdb, nil)
	ctx := context.Background()

	a := testutil.CreateClub(t, gdb, "Alpha", true)
	b := testutil.CreateClub(t, gdb, "Bravo", true)
	c := testutil.CreateClub(t, gdb, "Charlie", true)
	testutil.CreateClub(t, gdb, "Hidden", false)

	u1 := testutil.CreateUser(t, gdb, models.RoleUser)
	u2 := testutil.CreateUser(t, gdb, models.RoleUser)
	for _, v := range []struct {
		user uint
		ref  models.Ref
		dir  Direction
	}{
		{u1.ID, b.Ref(), DirectionUp},
		{u2.ID, b.Ref(), DirectionUp},
		{u1.ID, a.Ref(), DirectionDown},
		{u2.ID, c.Ref(), DirectionUp},
	} {
		_, err := votes.CastVote(ctx, v.user, v.ref, v.dir)
		require.NoError(t, err)
	}

	res, err := catalog.List(ctx, ListQuery{Kind: models.KindClub, Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Equal(t, int64(3), res.Total)
	require.Equal(t, 1, res.Pages)
	require.Equal(t, []uint{b.ID, c.ID, a.ID}, ids(res))
	require.Equal(t, Tally{Score: 2, Upvotes: 2}, res.Items[0].Tally)
	require.Equal(t, Tally{Score: -1, Downvotes: 1}, res.Items[2].Tally)

	// 分页
	res, err = catalog.List(ctx, ListQuery{Kind: models.KindClub, Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Equal(t, 2, res.Pages)
	require.Equal(t, []uint{a.ID}, ids(res))
}

func TestListSortAndFilter(t *testing.T) {
	gdb := testutil.NewDB(t)
	catalog := newCatalog(t, gdb)
	ctx := context.Background()

	brand := models.ClubBrand{Name: "Titleist"}
	require.NoError(t, gdb.Create(&brand).Error)
	putter := models.ClubType{Name: "Putter"}
	require.NoError(t, gdb.Create(&putter).Error)

	zeta := testutil.CreateClub(t, gdb, "Zeta", true)
	alpha := testutil.CreateClub(t, gdb, "Alpha", true)
	require.NoError(t, gdb.Model(alpha).Updates(map[string]interface{}{"brand_id": brand.ID, "club_type_id": putter.ID}).Error)

	res, err := catalog.List(ctx, ListQuery{Kind: models.KindClub, Sort: SortName})
	require.NoError(t, err)
	require.Equal(t, []uint{alpha.ID, zeta.ID}, ids(res))

	res, err = catalog.List(ctx, ListQuery{Kind: models.KindClub, Sort: SortNewest})
	require.NoError(t, err)
	require.Equal(t, []uint{alpha.ID, zeta.ID}, ids(res))

	res, err = catalog.List(ctx, ListQuery{Kind: models.KindClub, BrandID: &brand.ID})
	require.NoError(t, err)
	require.Equal(t, []uint{alpha.ID}, ids(res))
	club := res.Items[0].Entity.(*models.Club)
	require.Equal(t, "Titleist", club.Brand.Name)
	require.Equal(t, "Putter", club.ClubType.Name)

	other := uint(999)
	res, err = catalog.List(ctx, ListQuery{Kind: models.KindClub, ClubTypeID: &other})
	require.NoError(t, err)
	require.Empty(t, res.Items)
	require.Zero(t, res.Pages)
}

func TestListPlayersByRank(t *testing.T) {
	gdb := testutil.NewDB(t)
	catalog := newCatalog(t, gdb)

	unranked := testutil.CreatePlayer(t, gdb, "Club Pro", true)
	second := testutil.CreatePlayer(t, gdb, "Number Two", true)
	first := testutil.CreatePlayer(t, gdb, "Number One", true)
	require.NoError(t, gdb.Model(second).Update("world_ranking", 2).Error)
	require.NoError(t, gdb.Model(first).Update("world_ranking", 1).Error)

	res, err := catalog.List(context.Background(), ListQuery{Kind: models.KindPlayer, Sort: SortRank})
	require.NoError(t, err)
	require.Equal(t, []uint{first.ID, second.ID, unranked.ID}, ids(res))
}

func TestListInvalidKind(t *testing.T) {
	catalog := newCatalog(t, testutil.NewDB(t))
	_, err := catalog.List(context.Background(), ListQuery{Kind: "bookmark"})
	require.ErrorIs(t, err, ErrInvalidKind)
}

func TestDetail(t *testing.T) {
	gdb := testutil.NewDB(t)
	catalog := newCatalog(t, gdb)
	votes := NewVoteService(gdb, nil)
	ctx := context.Background()
	user := testutil.CreateUser(t, gdb, models.RoleUser)
	employee := testutil.CreateUser(t, gdb, models.RoleEmployee)

	course := testutil.CreateCourse(t, gdb, "Royal County Down", true)
	require.NoError(t, gdb.Create(&models.CourseHole{CourseID: course.ID, HoleNumber: 2, Par: 4}).Error)
	require.NoError(t, gdb.Create(&models.CourseHole{CourseID: course.ID, HoleNumber: 1, Par: 4}).Error)
	_, err := votes.CastVote(ctx, user.ID, course.Ref(), DirectionUp)
	require.NoError(t, err)

	d, err := catalog.Detail(ctx, course.Ref(), user)
	require.NoError(t, err)
	require.Equal(t, Tally{Score: 1, Upvotes: 1}, d.Tally)
	require.Equal(t, DirectionUp, d.UserVote)
	holes := d.Entity.(*models.Course).Holes
	require.Len(t, holes, 2)
	require.Equal(t, 1, holes[0].HoleNumber)

	d, err = catalog.Detail(ctx, course.Ref(), nil)
	require.NoError(t, err)
	require.Equal(t, DirectionNone, d.UserVote)

	pending := testutil.CreatePlayer(t, gdb, "Secret Am", false)
	_, err = catalog.Detail(ctx, pending.Ref(), user)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = catalog.Detail(ctx, pending.Ref(), nil)
	require.ErrorIs(t, err, ErrNotFound)
	d, err = catalog.Detail(ctx, pending.Ref(), employee)
	require.NoError(t, err)
	require.True(t, d.Entity.Moderation().Pending())

	_, err = catalog.Detail(ctx, models.Ref{Kind: models.KindClub, ID: 5}, employee)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateClub(t *testing.T) {
	gdb := testutil.NewDB(t)
	catalog := newCatalog(t, gdb)
	ctx := context.Background()
	user := testutil.CreateUser(t, gdb, models.RoleUser)
	employee := testutil.CreateUser(t, gdb, models.RoleEmployee)
	club := testutil.CreateClub(t, gdb, "TSR3", false)

	name := "TSR3 Driver"
	_, err := catalog.UpdateClub(ctx, club.ID, ClubPatch{Name: &name}, user)
	require.ErrorIs(t, err, ErrForbidden)

	approve := true
	updated, err := catalog.UpdateClub(ctx, club.ID, ClubPatch{Name: &name, IsApproved: &approve}, employee)
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
	require.True(t, updated.IsApproved)
	require.Equal(t, employee.ID, *updated.ApprovedBy)

	// 已通过时再次设置 true 不报错
	_, err = catalog.UpdateClub(ctx, club.ID, ClubPatch{IsApproved: &approve}, employee)
	require.NoError(t, err)

	revoke := false
	_, err = catalog.UpdateClub(ctx, club.ID, ClubPatch{IsApproved: &revoke}, employee)
	require.ErrorIs(t, err, ErrInvalidInput)

	missing := uint(77)
	_, err = catalog.UpdateClub(ctx, club.ID, ClubPatch{BrandID: &missing}, employee)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = catalog.UpdateClub(ctx, 404, ClubPatch{}, employee)
	require.ErrorIs(t, err, ErrNotFound)

	var stored models.Club
	require.NoError(t, gdb.First(&stored, club.ID).Error)
	require.Equal(t, name, stored.Name)
	require.True(t, stored.IsApproved)
	require.Nil(t, stored.BrandID)
}

func TestBrandsAndTypes(t *testing.T) {
	gdb := testutil.NewDB(t)
	catalog := newCatalog(t, gdb)
	ctx := context.Background()
	user := testutil.CreateUser(t, gdb, models.RoleUser)
	employee := testutil.CreateUser(t, gdb, models.RoleEmployee)

	brands, err := catalog.Brands(ctx)
	require.NoError(t, err)
	require.Empty(t, brands)

	require.ErrorIs(t, catalog.CreateBrand(ctx, &models.ClubBrand{Name: "Ping"}, user), ErrForbidden)
	require.ErrorIs(t, catalog.CreateBrand(ctx, &models.ClubBrand{Name: " "}, employee), ErrInvalidInput)
	require.NoError(t, catalog.CreateBrand(ctx, &models.ClubBrand{Name: "Ping"}, employee))
	require.ErrorIs(t, catalog.CreateBrand(ctx, &models.ClubBrand{Name: "Ping"}, employee), ErrDuplicateName)

	// 创建后缓存失效
	brands, err = catalog.Brands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 1)

	// 绕过 service 直接写库，缓存仍返回旧数据
	require.NoError(t, gdb.Create(&models.ClubBrand{Name: "Mizuno"}).Error)
	brands, err = catalog.Brands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 1)

	catalog.cache.Set(cacheKeyBrands, nil, time.Nanosecond)
	time.Sleep(time.Millisecond)
	brands, err = catalog.Brands(ctx)
	require.NoError(t, err)
	require.Len(t, brands, 2)

	require.NoError(t, catalog.CreateClubType(ctx, &models.ClubType{Name: "Chipper"}, employee))
	require.ErrorIs(t, catalog.CreateClubType(ctx, &models.ClubType{Name: "Chipper"}, employee), ErrDuplicateName)
	types, err := catalog.ClubTypes(ctx)
	require.NoError(t, err)
	require.Len(t, types, 1)
	require.Equal(t, "Chipper", types[0].Name)

	// 调用方修改返回值不影响缓存
	types[0].Name = "Putter"
	brands[0].Name = "Fake"
	types, err = catalog.ClubTypes(ctx)
	require.NoError(t, err)
	require.Equal(t, "Chipper", types[0].Name)
	brands, err = catalog.Brands(ctx)
	require.NoError(t, err)
	require.NotEqual(t, "Fake", brands[0].Name)
}
