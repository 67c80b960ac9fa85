package models

// Owned 可按用户判断可见性的实体（账户、类别、子类别、交易）
type Owned interface {
	VisibleTo(userID uint) bool
}

// VisibleTo 账户仅对所有者可见
func (a *Account) VisibleTo(userID uint) bool {
	return a.UserID == userID
}

// VisibleTo 系统类别对所有人可见，普通类别仅对所有者可见
func (c *Category) VisibleTo(userID uint) bool {
	return c.System || c.OwnedBy(userID)
}

// OwnedBy 类别是否属于该用户（系统类别不属于任何用户）
func (c *Category) OwnedBy(userID uint) bool {
	return c.UserID != nil && *c.UserID == userID
}

// VisibleTo 子类别的归属以其自身的 user_id 为准
func (s *Subcategory) VisibleTo(userID uint) bool {
	return s.UserID == userID
}

// VisibleTo 交易仅对所有者可见
func (t *Transaction) VisibleTo(userID uint) bool {
	return t.UserID == userID
}
