package chats

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"

	"rentora/utils"
)

const attachmentDir = "./static/chatpic"

// UploadAttachment stores a file message in the chat and broadcasts it.
//
// POST /api/chats/:chatid/attachments
func UploadAttachment(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		chatID := ps.ByName("chatid")
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()
		if !isParticipant(ctx, chatID, userID) {
			utils.RespondWithError(w, http.StatusForbidden, "Not a participant of this chat")
			return
		}

		if err := r.ParseMultipartForm(12 << 20); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid form data")
			return
		}

		file, hdr, err := r.FormFile("file")
		if err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		mediaType, _, _ := mime.ParseMediaType(hdr.Header.Get("Content-Type"))
		if !(strings.HasPrefix(mediaType, "image/") || mediaType == "application/pdf") || hdr.Size > 10<<20 {
			utils.RespondWithError(w, http.StatusBadRequest, "Only images and PDFs up to 10MB are allowed")
			return
		}

		if err := utils.EnsureDir(attachmentDir); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to prepare storage")
			return
		}

		fn := fmt.Sprintf("%d_%s", time.Now().Unix(), utils.SanitizeFilename(hdr.Filename))
		dst, err := os.Create(filepath.Join(attachmentDir, fn))
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save file")
			return
		}
		defer dst.Close()
		if _, err := io.Copy(dst, file); err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to save file")
			return
		}

		msg, err := persistMessage(ctx, chatID, userID, "", hdr.Filename, fn)
		if err != nil {
			utils.RespondWithError(w, http.StatusInternalServerError, "Failed to store message")
			return
		}

		broadcastMessage(hub, msg)
		utils.RespondWithJSON(w, http.StatusCreated, msg)
	}
}
