package services

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"os"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"gorm.io/gorm"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/repos"
	"github.com/yungbote/storyloom-backend/internal/types"
)

const avatarSize = 512

// Background palette for generated avatars. The color is picked by hashing
// the username so regenerating an avatar stays stable.
var avatarPalette = []color.NRGBA{
	{R: 0x2E, G: 0x86, B: 0xAB, A: 0xFF},
	{R: 0xA2, G: 0x3B, B: 0x72, A: 0xFF},
	{R: 0xF1, G: 0x8F, B: 0x01, A: 0xFF},
	{R: 0x3B, G: 0x7A, B: 0x57, A: 0xFF},
	{R: 0x6A, G: 0x4C, B: 0x93, A: 0xFF},
	{R: 0xC7, G: 0x3E, B: 0x1D, A: 0xFF},
	{R: 0x1B, G: 0x5E, B: 0x8A, A: 0xFF},
	{R: 0x5C, G: 0x6B, B: 0x2F, A: 0xFF},
}

type AvatarService interface {
	CreateUserAvatar(ctx context.Context, tx *gorm.DB, user *types.User) error
	SetUserAvatarFromImage(ctx context.Context, tx *gorm.DB, user *types.User, raw []byte) error
	GenerateUserAvatar(username string) (bytes.Buffer, error)
}

type avatarService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	mediaService MediaService
	fontFace     font.Face
}

func NewAvatarService(log *logger.Logger, userRepo repos.UserRepo, mediaService MediaService) (AvatarService, error) {
	serviceLog := log.With("service", "AvatarService")

	var face font.Face
	fontPath := strings.TrimSpace(os.Getenv("AVATAR_FONT"))
	if fontPath == "" {
		serviceLog.Warn("AVATAR_FONT not set, generated avatars will have no initials")
	} else {
		serviceLog.Info("Loading avatar font", "font", fontPath)
		loaded, err := loadFontFace(fontPath, 206)
		if err != nil {
			return nil, fmt.Errorf("could not load avatar font: %w", err)
		}
		face = loaded
	}

	return &avatarService{
		log:          serviceLog,
		userRepo:     userRepo,
		mediaService: mediaService,
		fontFace:     face,
	}, nil
}

// CreateUserAvatar renders an initials avatar, stores it and points the user
// record at the new file.
func (as *avatarService) CreateUserAvatar(ctx context.Context, tx *gorm.DB, user *types.User) error {
	buf, err := as.GenerateUserAvatar(user.Username)
	if err != nil {
		return err
	}
	path, err := as.mediaService.SaveBytes(ctx, buf.Bytes(), ".png")
	if err != nil {
		return fmt.Errorf("failed to store avatar: %w", err)
	}
	user.AvatarURL = path
	return as.userRepo.UpdateAvatarURL(ctx, tx, user.ID, path)
}

func (as *avatarService) GenerateUserAvatar(username string) (bytes.Buffer, error) {
	dc := gg.NewContext(avatarSize, avatarSize)

	dc.DrawCircle(float64(avatarSize)/2, float64(avatarSize)/2, float64(avatarSize)/2)
	dc.Clip()

	dc.SetColor(pickAvatarColor(username))
	dc.DrawRectangle(0, 0, float64(avatarSize), float64(avatarSize))
	dc.Fill()

	if as.fontFace != nil {
		initials := computeInitials(username)
		dc.SetFontFace(as.fontFace)
		tw, th := dc.MeasureString(initials)
		cx, cy := float64(avatarSize)/2, float64(avatarSize)/2
		dc.SetColor(color.White)
		dc.DrawString(initials, cx-(tw/2), cy+(th/2)-10)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf, nil
}

// SetUserAvatarFromImage center-crops and resizes an uploaded picture and
// replaces the user's generated avatar with it.
func (as *avatarService) SetUserAvatarFromImage(ctx context.Context, tx *gorm.DB, user *types.User, raw []byte) error {
	processed, err := processUploadedAvatar(raw, avatarSize)
	if err != nil {
		return err
	}
	path, err := as.mediaService.SaveBytes(ctx, processed.Bytes(), ".png")
	if err != nil {
		return fmt.Errorf("failed to store avatar: %w", err)
	}
	user.AvatarURL = path
	return as.userRepo.UpdateAvatarURL(ctx, tx, user.ID, path)
}

func processUploadedAvatar(raw []byte, size int) (bytes.Buffer, error) {
	var out bytes.Buffer

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return out, fmt.Errorf("decode image: %w", err)
	}

	// Center-crop to square
	b := img.Bounds()
	w := b.Dx()
	h := b.Dy()
	side := w
	if h < w {
		side = h
	}
	x0 := b.Min.X + (w-side)/2
	y0 := b.Min.Y + (h-side)/2

	cropRect := image.Rect(0, 0, side, side)
	cropped := image.NewRGBA(cropRect)
	draw.Draw(cropped, cropRect, img, image.Point{X: x0, Y: y0}, draw.Src)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), draw.Over, nil)

	dc := gg.NewContext(size, size)
	dc.DrawCircle(float64(size)/2, float64(size)/2, float64(size)/2)
	dc.Clip()
	dc.DrawImage(dst, 0, 0)

	if err := dc.EncodePNG(&out); err != nil {
		return out, fmt.Errorf("encode png: %w", err)
	}
	return out, nil
}

func pickAvatarColor(username string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(username)))
	return avatarPalette[int(h.Sum32())%len(avatarPalette)]
}

func computeInitials(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return "?"
	}
	runes := []rune(strings.ToUpper(username))
	if len(runes) == 1 {
		return string(runes[0])
	}
	return string(runes[0]) + string(runes[1])
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	face := truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	return face, nil
}
