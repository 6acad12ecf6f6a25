package apitest

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cityconnect/types"
)

func (b *Backend) routes(r *gin.Engine) {
	r.Use(b.injectFailures)

	r.POST("/auth/register", b.handleRegister)
	r.POST("/auth/login", b.handleLogin)
	r.POST("/auth/google", b.handleGoogle)
	r.GET("/auth/profile", b.requireAuth, b.handleProfile)
	r.PUT("/auth/change-password", b.requireAuth, b.handleChangePassword)
	r.PUT("/auth/change-username", b.requireAuth, b.handleChangeUsername)
	r.DELETE("/auth/delete", b.requireAuth, b.handleDeleteAccount)
	r.POST("/auth/:userId/rate", b.requireAuth, b.handleRate)

	r.GET("/users/:id", b.handleGetUser)
	r.GET("/users/:id/activities", b.handleUserActivities)
	r.PUT("/users/update-bio", b.requireAuth, b.handleUpdateBio)

	r.GET("/events", b.handleListEvents)
	r.POST("/events", b.requireAuth, b.handleCreateEvent)
	r.PUT("/events/:id", b.requireAuth, b.handleUpdateEvent)
	r.DELETE("/events/:id", b.requireAuth, b.handleDeleteEvent)
	r.POST("/events/:id/join", b.requireAuth, b.handleJoin)
	r.POST("/events/:id/leave", b.requireAuth, b.handleLeave)
	r.GET("/events/:id/participants", b.requireAuth, b.handleParticipants)

	r.GET("/conversations/my-conversations", b.requireAuth, b.handleMyConversations)
	r.GET("/conversations/:id", b.requireAuth, b.handleGetConversation)
	r.POST("/conversations/:id/message", b.requireAuth, b.handleSendMessage)
}

func (b *Backend) injectFailures(c *gin.Context) {
	b.mu.Lock()
	route := c.Request.Method + " " + c.FullPath()
	f, ok := b.failures[route]
	hook := b.hooks[route]
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	if ok {
		c.AbortWithStatusJSON(f.status, gin.H{"message": f.message})
		return
	}
	c.Next()
}

func (b *Backend) requireAuth(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	b.mu.Lock()
	userID, ok := b.tokens[token]
	b.mu.Unlock()
	if token == "" || !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token invalide ou expiré"})
		return
	}
	c.Set("userID", userID)
	c.Next()
}

func currentUser(c *gin.Context) string {
	return c.GetString("userID")
}

// auth

func (b *Backend) handleRegister(c *gin.Context) {
	var body types.RegisterRequest
	if err := c.BindJSON(&body); err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, taken := b.passwords[body.Email]; taken {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cet email est déjà utilisé"})
		return
	}
	u := b.addUserLocked(body.Username, body.Email, body.Password)
	c.JSON(http.StatusCreated, types.AuthResponse{Token: b.issueTokenLocked(u.ID), User: u})
}

func (b *Backend) handleLogin(c *gin.Context) {
	var body types.LoginRequest
	if err := c.BindJSON(&body); err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if pw, ok := b.passwords[body.Email]; !ok || pw != body.Password {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Identifiants invalides"})
		return
	}
	for _, u := range b.users {
		if u.Email == body.Email {
			c.JSON(http.StatusOK, types.AuthResponse{Token: b.issueTokenLocked(u.ID), User: u})
			return
		}
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": "Identifiants invalides"})
}

func (b *Backend) handleGoogle(c *gin.Context) {
	var body types.GoogleLoginRequest
	if err := c.BindJSON(&body); err != nil || body.IDToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "idToken manquant"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	email := body.IDToken + "@google.test"
	for _, u := range b.users {
		if u.Email == email {
			c.JSON(http.StatusOK, types.AuthResponse{Token: b.issueTokenLocked(u.ID), User: u})
			return
		}
	}
	u := b.addUserLocked(body.IDToken, email, "")
	c.JSON(http.StatusOK, types.AuthResponse{Token: b.issueTokenLocked(u.ID), User: u})
}

func (b *Backend) handleProfile(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[currentUser(c)]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Utilisateur introuvable"})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (b *Backend) handleChangePassword(c *gin.Context) {
	var body types.ChangePasswordRequest
	if err := c.BindJSON(&body); err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.users[currentUser(c)]
	if u == nil || b.passwords[u.Email] != body.CurrentPassword {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Mot de passe actuel incorrect"})
		return
	}
	b.passwords[u.Email] = body.NewPassword
	c.JSON(http.StatusOK, gin.H{"message": "Mot de passe modifié"})
}

func (b *Backend) handleChangeUsername(c *gin.Context) {
	var body types.ChangeUsernameRequest
	if err := c.BindJSON(&body); err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if u := b.users[currentUser(c)]; u != nil {
		u.Username = body.Username
	}
	c.JSON(http.StatusOK, gin.H{"message": "Nom d'utilisateur modifié"})
}

func (b *Backend) handleDeleteAccount(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := currentUser(c)
	if u := b.users[id]; u != nil {
		delete(b.passwords, u.Email)
	}
	delete(b.users, id)
	for token, uid := range b.tokens {
		if uid == id {
			delete(b.tokens, token)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Compte supprimé"})
}

func (b *Backend) handleRate(c *gin.Context) {
	var body types.RateRequest
	if err := c.BindJSON(&body); err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id := c.Param("userId")
	u, ok := b.users[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Utilisateur introuvable"})
		return
	}
	b.ratings[id] = append(b.ratings[id], body.Rating)
	sum := 0
	for _, r := range b.ratings[id] {
		sum += r
	}
	avg := float64(sum) / float64(len(b.ratings[id]))
	u.AverageRating = &avg
	c.JSON(http.StatusOK, types.RateResponse{Rating: avg})
}

// users

func (b *Backend) handleGetUser(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Utilisateur introuvable"})
		return
	}
	c.JSON(http.StatusOK, u)
}

func (b *Backend) handleUserActivities(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := c.Param("id")
	out := []types.Activity{}
	for _, e := range b.events {
		if e.CreatedBy == id || slices.Contains(e.Participants, id) {
			out = append(out, *e)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) handleUpdateBio(c *gin.Context) {
	var body types.UpdateBioRequest
	if err := c.BindJSON(&body); err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.users[currentUser(c)]
	if u == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Utilisateur introuvable"})
		return
	}
	u.Bio = body.Bio
	c.JSON(http.StatusOK, u)
}

// events

func (b *Backend) handleListEvents(c *gin.Context) {
	category := c.Query("category")
	date := c.Query("date")
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []json.RawMessage{}
	for _, e := range b.events {
		if category != "" && string(e.Category) != category {
			continue
		}
		if date != "" && e.Date.UTC().Format(time.DateOnly) != date {
			continue
		}
		raw, err := json.Marshal(e)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
			return
		}
		out = append(out, raw)
	}
	out = append(out, b.rawEvents...)
	c.JSON(http.StatusOK, out)
}

func (b *Backend) handleCreateEvent(c *gin.Context) {
	var body types.CreateActivityRequest
	if err := c.BindJSON(&body); err != nil {
		return
	}
	if body.Title == "" || body.Location == "" || body.MaxParticipants < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Champs manquants"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e := &types.Activity{
		ID:              b.nextID("e"),
		Title:           body.Title,
		Description:     body.Description,
		Date:            body.Date,
		Category:        body.Category,
		Location:        body.Location,
		MaxParticipants: body.MaxParticipants,
		Participants:    []string{},
		Photos:          body.Photos,
		CreatedBy:       currentUser(c),
	}
	if e.Photos == nil {
		e.Photos = []string{}
	}
	b.events = append(b.events, e)
	c.JSON(http.StatusCreated, e)
}

func (b *Backend) ownedEvent(c *gin.Context) *types.Activity {
	e := b.findEventLocked(c.Param("id"))
	if e == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Activité introuvable"})
		return nil
	}
	if e.CreatedBy != currentUser(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Action réservée au créateur"})
		return nil
	}
	return e
}

func (b *Backend) handleUpdateEvent(c *gin.Context) {
	var body types.UpdateActivityRequest
	if err := c.BindJSON(&body); err != nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.ownedEvent(c)
	if e == nil {
		return
	}
	if body.Title != "" {
		e.Title = body.Title
	}
	if body.Description != "" {
		e.Description = body.Description
	}
	c.JSON(http.StatusOK, e)
}

func (b *Backend) handleDeleteEvent(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.ownedEvent(c)
	if e == nil {
		return
	}
	b.events = slices.DeleteFunc(b.events, func(x *types.Activity) bool { return x.ID == e.ID })
	c.JSON(http.StatusOK, gin.H{"message": "Activité annulée"})
}

func (b *Backend) handleJoin(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.findEventLocked(c.Param("id"))
	if e == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Activité introuvable"})
		return
	}
	uid := currentUser(c)
	if !slices.Contains(e.Participants, uid) {
		if len(e.Participants) >= e.MaxParticipants {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Activité complète"})
			return
		}
		e.Participants = append(e.Participants, uid)
	}

	conv := b.conversationForEventLocked(e.ID)
	if conv == nil {
		conv = &storedConversation{id: b.nextID("c"), eventID: e.ID}
		b.conversations = append(b.conversations, conv)
	}

	if !b.joinReturnsConversation {
		c.JSON(http.StatusOK, gin.H{"message": "Inscription confirmée"})
		return
	}
	rendered := b.renderConversationLocked(conv)
	c.JSON(http.StatusOK, gin.H{"message": "Inscription confirmée", "conversation": rendered})
}

func (b *Backend) handleLeave(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.findEventLocked(c.Param("id"))
	if e == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Activité introuvable"})
		return
	}
	uid := currentUser(c)
	e.Participants = slices.DeleteFunc(e.Participants, func(p string) bool { return p == uid })
	c.JSON(http.StatusOK, gin.H{"message": "Désinscription confirmée"})
}

func (b *Backend) handleParticipants(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e := b.findEventLocked(c.Param("id"))
	if e == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Activité introuvable"})
		return
	}
	out := []types.User{}
	for _, id := range e.Participants {
		if u, ok := b.users[id]; ok {
			out = append(out, *u)
		}
	}
	c.JSON(http.StatusOK, out)
}

// conversations

func (b *Backend) handleMyConversations(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	uid := currentUser(c)
	out := []types.Conversation{}
	for _, conv := range b.conversations {
		e := b.findEventLocked(conv.eventID)
		if e != nil && e.CreatedBy != uid && !slices.Contains(e.Participants, uid) {
			continue
		}
		out = append(out, b.renderConversationLocked(conv))
	}
	c.JSON(http.StatusOK, out)
}

func (b *Backend) handleGetConversation(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	conv := b.findConversationLocked(c.Param("id"))
	if conv == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Conversation introuvable"})
		return
	}
	c.JSON(http.StatusOK, b.renderConversationLocked(conv))
}

func (b *Backend) handleSendMessage(c *gin.Context) {
	var body types.SendMessageRequest
	if err := c.BindJSON(&body); err != nil {
		return
	}
	if strings.TrimSpace(body.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Message vide"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	conv := b.findConversationLocked(c.Param("id"))
	if conv == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Conversation introuvable"})
		return
	}
	msg := types.Message{
		ID:        b.nextID("m"),
		Content:   body.Content,
		Sender:    types.UserRef{ID: currentUser(c)},
		Timestamp: time.Now().UTC(),
	}
	conv.messages = append(conv.messages, msg)
	if u, ok := b.users[msg.Sender.ID]; ok {
		sender := *u
		msg.Sender.User = &sender
	}
	c.JSON(http.StatusCreated, msg)
}
