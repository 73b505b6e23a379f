package controllers

import (
	"context"
	"fmt"
	"mime/multipart"
	"sort"
	"strconv"
	"strings"

	"learnify/backend/models"
	"learnify/backend/services"
	"learnify/backend/storage"
	"learnify/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

type CourseForm struct {
	Name        string `json:"name" validate:"required,notblank"`
	Description string `json:"description" validate:"required,notblank"`
	Category    string `json:"category" validate:"required,notblank"`
	Tags        string `json:"tags" validate:"required,notblank"`
	NumVideos   string `json:"num_videos" validate:"required,number"`
}

func formValue(form *multipart.Form, key string) (string, bool) {
	if form == nil {
		return "", false
	}
	v, ok := form.Value[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return strings.TrimSpace(v[0]), true
}

func formFile(form *multipart.Form, key string) *multipart.FileHeader {
	if form == nil || len(form.File[key]) == 0 {
		return nil
	}
	return form.File[key][0]
}

// extraIndexes returns, in order, the indexes below count that have an
// extra_video_<i> or extra_document_<i> file in the form.
func extraIndexes(form *multipart.Form, count int) []int {
	seen := map[int]bool{}
	for key := range form.File {
		var raw string
		switch {
		case strings.HasPrefix(key, "extra_video_"):
			raw = strings.TrimPrefix(key, "extra_video_")
		case strings.HasPrefix(key, "extra_document_"):
			raw = strings.TrimPrefix(key, "extra_document_")
		default:
			continue
		}
		if i, err := strconv.Atoi(raw); err == nil && i >= 0 && i < count {
			seen[i] = true
		}
	}
	out := make([]int, 0, len(seen))
	for i := range seen {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// cleanup removes blobs uploaded earlier in a request that failed later.
func (cc *CoursesController) cleanup(ctx context.Context, urls []string) {
	for _, u := range urls {
		if err := deleteByURL(ctx, cc.Store, u); err != nil {
			cc.Log.Warn("cleanup of uploaded file failed", "url", u, "error", err)
		}
	}
}

// CreateCourse godoc
// @Summary Create a course
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Course name"
// @Param num_videos formData int true "Declared lecture count"
// @Param image formData file false "Cover image"
// @Success 201 {object} utils.SuccessResponse
// @Failure 422 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.BadRequest(c, "Expected multipart form data")
	}
	in := CourseForm{}
	in.Name, _ = formValue(form, "name")
	in.Description, _ = formValue(form, "description")
	in.Category, _ = formValue(form, "category")
	in.Tags, _ = formValue(form, "tags")
	in.NumVideos, _ = formValue(form, "num_videos")
	if errs := utils.ValidateStruct(in); errs != nil {
		return utils.ValidationError(c, errs)
	}
	numVideos, err := strconv.Atoi(in.NumVideos)
	if err != nil || numVideos < 0 {
		return utils.ValidationError(c, map[string]string{"num_videos": "num_videos must be a non-negative integer"})
	}

	course := models.Course{
		Name:               in.Name,
		Description:        in.Description,
		Category:           in.Category,
		Tags:               datatypes.JSONSlice[string](services.ParseTags(in.Tags)),
		NumVideos:          numVideos,
		VideoURLs:          datatypes.JSONSlice[string]{},
		DocumentURLs:       datatypes.JSONSlice[string]{},
		AdditionalLectures: datatypes.JSONSlice[models.AdditionalLecture]{},
	}

	ctx := c.UserContext()
	if fh := formFile(form, "image"); fh != nil {
		url, err := uploadFile(ctx, cc.Store, fh, storage.FolderImages)
		if err != nil {
			cc.Log.Error("upload course image failed", "error", err)
			return utils.InternalServerError(c, "Could not upload image")
		}
		course.ImageURL = url
	}

	if err := cc.DB.Create(&course).Error; err != nil {
		cc.cleanup(ctx, []string{course.ImageURL})
		cc.Log.Error("create course failed", "error", err)
		return utils.InternalServerError(c, "Could not create course")
	}
	cc.Log.Info("course created", "course_id", course.ID, "num_videos", numVideos)
	return utils.Created(c, courseView(&course, true))
}

// AdminListCourses supports the catalog filters plus page and page_size.
func (cc *CoursesController) AdminListCourses(c *fiber.Ctx) error {
	filter, ok := filterFromQuery(c)
	if !ok {
		return utils.BadRequest(c, "filter_by must be one of name, category, tags, description")
	}
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", 50)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	courses, err := services.ListCourses(cc.DB, filter)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	total := len(courses)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	out := make([]fiber.Map, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, courseView(&courses[i], true))
	}
	return utils.Paginate(c, out, int64(total), page, pageSize)
}

func (cc *CoursesController) AdminGetCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	course, err := services.FindCourse(cc.DB, id)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, courseView(course, true))
}

// UpdateCourse edits metadata, replaces the cover image and appends
// additional lectures sent as extra_video_<i> / extra_document_<i>.
func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return utils.BadRequest(c, "Expected multipart form data")
	}
	course, err := services.FindCourse(cc.DB, id)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}

	totalBefore := course.TotalLectures()

	errs := map[string]string{}
	for _, field := range []struct {
		key string
		dst *string
	}{
		{"name", &course.Name},
		{"description", &course.Description},
		{"category", &course.Category},
	} {
		if v, ok := formValue(form, field.key); ok {
			if v == "" {
				errs[field.key] = field.key + " must not be blank"
				continue
			}
			*field.dst = v
		}
	}
	if v, ok := formValue(form, "tags"); ok {
		course.Tags = datatypes.JSONSlice[string](services.ParseTags(v))
	}
	if v, ok := formValue(form, "num_videos"); ok {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil || n < 0:
			errs["num_videos"] = "num_videos must be a non-negative integer"
		case n < len(course.VideoURLs) || n < len(course.DocumentURLs):
			errs["num_videos"] = "num_videos cannot be lower than the number of uploaded lectures"
		default:
			course.NumVideos = n
		}
	}
	extraCount := 0
	if v, ok := formValue(form, "extra_count"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs["extra_count"] = "extra_count must be a non-negative integer"
		}
		extraCount = n
	}
	if len(errs) > 0 {
		return utils.ValidationError(c, errs)
	}

	ctx := c.UserContext()
	var uploaded []string

	if fh := formFile(form, "image"); fh != nil {
		if course.ImageURL != "" {
			if err := deleteByURL(ctx, cc.Store, course.ImageURL); err != nil {
				cc.Log.Warn("delete old course image failed", "course_id", course.ID, "error", err)
			}
		}
		url, err := uploadFile(ctx, cc.Store, fh, storage.FolderImages)
		if err != nil {
			cc.Log.Error("upload course image failed", "course_id", course.ID, "error", err)
			return utils.InternalServerError(c, "Could not upload image")
		}
		uploaded = append(uploaded, url)
		course.ImageURL = url
	}

	for _, i := range extraIndexes(form, extraCount) {
		video := formFile(form, fmt.Sprintf("extra_video_%d", i))
		doc := formFile(form, fmt.Sprintf("extra_document_%d", i))
		if video == nil && doc == nil {
			continue
		}
		extra := models.AdditionalLecture{}
		if video != nil {
			url, err := uploadFile(ctx, cc.Store, video, storage.FolderVideos)
			if err != nil {
				cc.cleanup(ctx, uploaded)
				cc.Log.Error("upload additional video failed", "course_id", course.ID, "error", err)
				return utils.InternalServerError(c, "Could not upload additional lecture")
			}
			uploaded = append(uploaded, url)
			extra.Video, extra.Names.Video = url, video.Filename
		}
		if doc != nil {
			url, err := uploadFile(ctx, cc.Store, doc, storage.FolderDocuments)
			if err != nil {
				cc.cleanup(ctx, uploaded)
				cc.Log.Error("upload additional document failed", "course_id", course.ID, "error", err)
				return utils.InternalServerError(c, "Could not upload additional lecture")
			}
			uploaded = append(uploaded, url)
			extra.Document, extra.Names.Document = url, doc.Filename
		}
		course.AdditionalLectures = append(course.AdditionalLectures, extra)
	}

	if err := cc.DB.Save(course).Error; err != nil {
		cc.cleanup(ctx, uploaded)
		cc.Log.Error("update course failed", "course_id", course.ID, "error", err)
		return utils.InternalServerError(c, "Could not update course")
	}
	if course.TotalLectures() < totalBefore {
		pruned, err := services.PruneCompletions(cc.DB, course.ID, course.TotalLectures())
		if err != nil {
			cc.Log.Warn("prune completions failed", "course_id", course.ID, "error", err)
		} else if pruned > 0 {
			cc.Log.Info("completions pruned", "course_id", course.ID, "rows", pruned)
		}
	}
	return utils.Success(c, fiber.StatusOK, courseView(course, true))
}

// UploadLectures appends uploaded videos and documents to the default
// lecture lists.
func (cc *CoursesController) UploadLectures(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return utils.BadRequest(c, "No new videos or documents uploaded")
	}
	videos, docs := form.File["videos"], form.File["documents"]
	if len(videos) == 0 && len(docs) == 0 {
		return utils.BadRequest(c, "No new videos or documents uploaded")
	}

	course, err := services.FindCourse(cc.DB, id)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	if err := services.CheckUploadCapacity(course, len(videos), len(docs)); err != nil {
		return serviceError(c, cc.Log, err)
	}

	ctx := c.UserContext()
	var uploaded []string
	upload := func(files []*multipart.FileHeader, folder string) ([]string, error) {
		urls := make([]string, 0, len(files))
		for _, fh := range files {
			url, err := uploadFile(ctx, cc.Store, fh, folder)
			if err != nil {
				return nil, err
			}
			uploaded = append(uploaded, url)
			urls = append(urls, url)
		}
		return urls, nil
	}

	videoURLs, err := upload(videos, storage.FolderVideos)
	if err == nil {
		var docURLs []string
		docURLs, err = upload(docs, storage.FolderDocuments)
		course.DocumentURLs = append(course.DocumentURLs, docURLs...)
	}
	if err != nil {
		cc.cleanup(ctx, uploaded)
		cc.Log.Error("lecture upload failed", "course_id", id, "error", err)
		return utils.InternalServerError(c, "Could not upload lectures")
	}
	course.VideoURLs = append(course.VideoURLs, videoURLs...)

	if err := cc.DB.Save(course).Error; err != nil {
		cc.cleanup(ctx, uploaded)
		cc.Log.Error("save uploaded lectures failed", "course_id", id, "error", err)
		return utils.InternalServerError(c, "Could not update course")
	}

	slots, complete := services.LectureSlots(course)
	cc.Log.Info("lectures uploaded", "course_id", id, "videos", len(videos), "documents", len(docs))
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"uploaded":        uploaded,
		"slots":           slots,
		"upload_complete": complete,
	})
}

func (cc *CoursesController) GetLectureSlots(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	course, err := services.FindCourse(cc.DB, id)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}
	slots, complete := services.LectureSlots(course)
	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"course_id":       course.ID,
		"slots":           slots,
		"upload_complete": complete,
	})
}

// DeleteCourse removes every blob of the course and then the course.
// A failed blob delete aborts; blobs already removed stay removed.
func (cc *CoursesController) DeleteCourse(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}
	course, err := services.FindCourse(cc.DB, id)
	if err != nil {
		return serviceError(c, cc.Log, err)
	}

	ctx := c.UserContext()
	for _, url := range services.MediaURLs(course) {
		if err := deleteByURL(ctx, cc.Store, url); err != nil {
			cc.Log.Error("delete course media failed", "course_id", id, "url", url, "error", err)
			return utils.InternalServerError(c, "Could not delete course media")
		}
	}
	if err := cc.DB.Delete(course).Error; err != nil {
		cc.Log.Error("delete course failed", "course_id", id, "error", err)
		return utils.InternalServerError(c, "Could not delete course")
	}
	cc.Log.Info("course deleted", "course_id", id)
	return utils.NoContent(c)
}
